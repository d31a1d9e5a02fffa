package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Date range a budget or a report covers
// =============================================================================

// Period is an inclusive range of calendar days [Start, End].
//
// Examples:
//   - Month budget: Mar 1 - Mar 31
//   - Custom budget: Mar 15 - Apr 14
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t's calendar day is within the period.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(p.Start)) && !d.After(DateOf(p.End))
}

// Validate rejects periods that end before they start.
func (p Period) Validate() error {
	if DateOf(p.End).Before(DateOf(p.Start)) {
		return Invalid("end", fmt.Sprintf("%s is before start %s",
			p.End.Format(DateLayout), p.Start.Format(DateLayout)))
	}
	return nil
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.Format(DateLayout) + ", " + p.End.Format(DateLayout) + "]"
}

// MonthPeriod returns the calendar month containing t.
func MonthPeriod(t time.Time) Period {
	return Period{
		Start: StartOfMonth(t.Year(), t.Month()),
		End:   EndOfMonth(t.Year(), t.Month()),
	}
}

// ParseMonth parses "YYYY-MM" into that month's period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, Invalid("month", "expected YYYY-MM")
	}
	return MonthPeriod(t), nil
}
