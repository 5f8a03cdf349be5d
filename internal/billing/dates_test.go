package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/haulbridge/freightex-api/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBillingDates_Net15Window(t *testing.T) {
	dates, err := BillingDates(day(2024, time.January, 1), day(2024, time.March, 31), TermNet15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		day(2024, time.January, 15),
		day(2024, time.January, 31),
		day(2024, time.February, 15),
		day(2024, time.February, 29),
		day(2024, time.March, 15),
		day(2024, time.March, 31),
		day(2024, time.April, 15), // trailing date for the final partial period
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(dates), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestBillingDates_Net7MidMonthStart(t *testing.T) {
	dates, err := BillingDates(day(2024, time.May, 10), day(2024, time.May, 31), TermNet7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 14, 21, 28 inside the window, then June 7 trailing.
	want := []time.Time{
		day(2024, time.May, 14),
		day(2024, time.May, 21),
		day(2024, time.May, 28),
		day(2024, time.June, 7),
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(dates), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestBillingDates_EOM(t *testing.T) {
	dates, err := BillingDates(day(2024, time.January, 1), day(2024, time.February, 29), TermEOM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		day(2024, time.January, 31),
		day(2024, time.February, 29),
		day(2024, time.March, 31),
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(dates), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestBillingDates_PABSingleImmediateDate(t *testing.T) {
	start := day(2024, time.June, 3)
	dates, err := BillingDates(start, day(2024, time.August, 31), TermPAB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 1 || !dates[0].Equal(start) {
		t.Errorf("expected single date %s, got %v", start, dates)
	}
}

func TestBillingDates_UnsupportedTerm(t *testing.T) {
	_, err := BillingDates(day(2024, time.January, 1), day(2024, time.January, 31), "NET_45")
	if !errors.Is(err, types.ErrUnsupportedTerm) {
		t.Errorf("expected ErrUnsupportedTerm, got %v", err)
	}
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name  string
		after time.Time
		term  string
		want  time.Time
	}{
		{"net15 before 15th", day(2024, time.March, 10), TermNet15, day(2024, time.March, 15)},
		{"net15 on 15th", day(2024, time.March, 15), TermNet15, day(2024, time.March, 15)},
		{"net15 after 15th", day(2024, time.March, 16), TermNet15, day(2024, time.March, 31)},
		{"net15 rolls into next month", day(2024, time.April, 1), TermNet15, day(2024, time.April, 15)},
		{"net7 late month rolls over", day(2024, time.January, 29), TermNet7, day(2024, time.February, 7)},
		{"net10 month end", day(2024, time.February, 21), TermNet10, day(2024, time.February, 29)},
		{"eom", day(2024, time.July, 2), TermEOM, day(2024, time.July, 31)},
		{"pab immediate", day(2024, time.July, 2), TermPAB, day(2024, time.July, 2)},
	}
	for _, tt := range tests {
		got, err := NextDueDate(tt.after, tt.term)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestIsBillingCycleActive(t *testing.T) {
	tests := []struct {
		name  string
		due   time.Time
		term  string
		today time.Time
		want  bool
	}{
		{"net15 inside first half", day(2024, time.March, 15), TermNet15, day(2024, time.March, 4), true},
		{"net15 second half not first due", day(2024, time.March, 15), TermNet15, day(2024, time.March, 20), false},
		{"net15 second half month end", day(2024, time.March, 31), TermNet15, day(2024, time.March, 20), true},
		{"eom same month", day(2024, time.May, 31), TermEOM, day(2024, time.May, 2), true},
		{"eom other month", day(2024, time.May, 31), TermEOM, day(2024, time.June, 2), false},
		{"net7 third week", day(2024, time.May, 21), TermNet7, day(2024, time.May, 16), true},
	}
	for _, tt := range tests {
		got, err := IsBillingCycleActive(tt.due, tt.term, tt.today)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
