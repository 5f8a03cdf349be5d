// Package billing derives installment due dates from payment-term policies
// and builds the contract -> interim -> shipment invoice cascade.
package billing

import (
	"sort"
	"time"

	"github.com/haulbridge/freightex-api/internal/types"
)

// Payment terms. Each term partitions a month into billing sub-periods whose
// boundaries are the due days listed in dueDaysInMonth.
const (
	TermNet7  = "NET_7"
	TermNet10 = "NET_10"
	TermNet15 = "NET_15"
	TermEOM   = "EOM"
	TermPAB   = "PAB" // pay-at-booking: immediate commitment, no schedule
)

// dueDaysInMonth returns the due days of the given term within a month.
// A zero entry stands for the last day of the month.
func dueDaysInMonth(term string) ([]int, error) {
	switch term {
	case TermNet7:
		return []int{7, 14, 21, 28}, nil
	case TermNet10:
		return []int{10, 20, 0}, nil
	case TermNet15:
		return []int{15, 0}, nil
	case TermEOM:
		return []int{0}, nil
	case TermPAB:
		return nil, nil
	default:
		return nil, types.ErrUnsupportedTerm
	}
}

// BillingDates returns the ordered, deduplicated due dates the term produces
// inside [start, end], plus one trailing date from NextDueDate(end+1, term)
// covering the final partial billing period. PAB has no schedule: it yields
// the start date alone.
func BillingDates(start, end time.Time, term string) ([]time.Time, error) {
	days, err := dueDaysInMonth(term)
	if err != nil {
		return nil, err
	}
	start = dateOnly(start)
	end = dateOnly(end)
	if term == TermPAB {
		return []time.Time{start}, nil
	}

	seen := make(map[time.Time]struct{})
	var dates []time.Time
	add := func(d time.Time) {
		if d.Before(start) || d.After(end) {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		for _, day := range days {
			add(dayOfMonth(cursor, day))
		}
	}

	trailing, err := NextDueDate(end.AddDate(0, 0, 1), term)
	if err != nil {
		return nil, err
	}
	if _, ok := seen[trailing]; !ok {
		dates = append(dates, trailing)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// NextDueDate returns the first due date of the term on or after the given
// date: for NET_15 that is the 15th when the day is at or before the 15th,
// month-end through the 31st, and so on. PAB is due immediately.
func NextDueDate(after time.Time, term string) (time.Time, error) {
	days, err := dueDaysInMonth(term)
	if err != nil {
		return time.Time{}, err
	}
	after = dateOnly(after)
	if term == TermPAB {
		return after, nil
	}
	// The latest due day of every term is at or past month-end minus three
	// days, so the match is always inside the current or the next month.
	for _, cursor := range []time.Time{after, firstOfNextMonth(after)} {
		for _, day := range days {
			due := dayOfMonth(cursor, day)
			if !due.Before(after) {
				return due, nil
			}
		}
	}
	return time.Time{}, types.ErrUnsupportedTerm
}

// IsBillingCycleActive reports whether an invoice due on dueDate belongs to
// the billing sub-period running at today: that holds exactly when dueDate is
// the next applicable due date as seen from today.
func IsBillingCycleActive(dueDate time.Time, term string, today time.Time) (bool, error) {
	next, err := NextDueDate(today, term)
	if err != nil {
		return false, err
	}
	return next.Equal(dateOnly(dueDate)), nil
}

// dayOfMonth resolves a due-day entry within t's month; 0 means month-end.
func dayOfMonth(t time.Time, day int) time.Time {
	if day == 0 {
		return firstOfNextMonth(t).AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, t.Location())
}

func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
