// Package schedule derives deterministic shipment date sequences from a lane
// exchange's recurrence policy. It is pure calendar math with no store access;
// settlement fixes the contract's total obligation from its output.
package schedule

import (
	"strings"
	"time"

	"github.com/haulbridge/freightex-api/internal/types"
)

// Recurrence frequencies.
const (
	FrequencyDaily  = "DAILY"
	FrequencyWeekly = "WEEKLY"
)

// Policy is the recurrence policy carried on a lane exchange. EndDate may be
// zero, in which case only TotalShipments bounds the scan.
type Policy struct {
	Frequency            string
	AllowedWeekdays      []time.Weekday
	StartDate            time.Time
	EndDate              time.Time
	ShipmentsPerInterval int
	SkipWeekends         bool
	TotalShipments       int
}

// PolicyFromExchange builds a Policy from the recurrence fields of a lane
// exchange.
func PolicyFromExchange(ex *types.Exchange) Policy {
	return Policy{
		Frequency:            ex.Frequency,
		AllowedWeekdays:      ParseWeekdays(ex.AllowedWeekdays),
		StartDate:            ex.StartDate,
		EndDate:              ex.EndDate,
		ShipmentsPerInterval: ex.ShipmentsPerInterval,
		SkipWeekends:         ex.SkipWeekends,
		TotalShipments:       ex.TotalShipments,
	}
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// ParseWeekdays parses a comma-separated weekday list ("MON,WED,FRI").
// Unrecognised tokens are dropped; an empty input yields nil, meaning no
// weekday restriction.
func ParseWeekdays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var out []time.Weekday
	for _, tok := range strings.Split(s, ",") {
		if wd, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(tok))]; ok {
			out = append(out, wd)
		}
	}
	return out
}

// RecurrenceDates returns the ordered shipment dates implied by the policy.
// Daily scans day by day from StartDate; Weekly scans in fixed 7-day blocks.
// A day qualifies when its weekday is allowed and, with SkipWeekends set, is
// not a Saturday or Sunday. The scan stops once TotalShipments dates are
// collected or the day passes EndDate.
func RecurrenceDates(p Policy) ([]time.Time, error) {
	switch p.Frequency {
	case FrequencyDaily:
		return scanDays(p, 1), nil
	case FrequencyWeekly:
		return scanDays(p, 7), nil
	default:
		return nil, types.ErrUnsupportedFrequency
	}
}

// TotalCommittedShipments is the contract's total obligation: every
// qualifying date carries ShipmentsPerInterval movements.
func TotalCommittedShipments(p Policy) (int, error) {
	dates, err := RecurrenceDates(p)
	if err != nil {
		return 0, err
	}
	per := p.ShipmentsPerInterval
	if per < 1 {
		per = 1
	}
	return len(dates) * per, nil
}

// scanDays walks blockLen days at a time from the start date, collecting every
// qualifying day inside each block. With blockLen 1 this is a plain daily
// scan; with 7 it scans week blocks.
func scanDays(p Policy, blockLen int) []time.Time {
	if p.TotalShipments <= 0 && p.EndDate.IsZero() {
		// Nothing bounds the scan.
		return nil
	}
	var dates []time.Time
	day := truncateDay(p.StartDate)
	for {
		for i := 0; i < blockLen; i++ {
			if stopAt(p, day, len(dates)) {
				return dates
			}
			if qualifies(p, day) {
				dates = append(dates, day)
			}
			day = day.AddDate(0, 0, 1)
		}
		if stopAt(p, day, len(dates)) {
			return dates
		}
	}
}

func stopAt(p Policy, day time.Time, collected int) bool {
	if p.TotalShipments > 0 && collected >= p.TotalShipments {
		return true
	}
	if !p.EndDate.IsZero() && day.After(truncateDay(p.EndDate)) {
		return true
	}
	// Horizon guard: a shipment-count bound with no qualifying days must not
	// scan forever.
	if day.After(p.StartDate.AddDate(5, 0, 0)) {
		return true
	}
	return false
}

func qualifies(p Policy, day time.Time) bool {
	wd := day.Weekday()
	if p.SkipWeekends && (wd == time.Saturday || wd == time.Sunday) {
		return false
	}
	if len(p.AllowedWeekdays) == 0 {
		return true
	}
	for _, allowed := range p.AllowedWeekdays {
		if wd == allowed {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
