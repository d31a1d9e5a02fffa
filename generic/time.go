package generic

import (
	"time"
)

// =============================================================================
// CALENDAR DATES - Day-granularity helpers (budgets think in days)
// =============================================================================

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day in t's location, returned in UTC.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// =============================================================================
// MONTH UTILITIES
// =============================================================================

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns day limited to the last day of the month
// (e.g. 31 in February becomes 28 or 29).
func ClampDay(year int, month time.Month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// AddMonths moves to the first day of the month n months after t's month.
// Unlike time.AddDate it never overflows into the following month.
func AddMonths(t time.Time, n int) time.Time {
	return Date(t.Year(), t.Month()+time.Month(n), 1)
}

// StartOfMonth returns the first day of the month.
func StartOfMonth(year int, month time.Month) time.Time { return Date(year, month, 1) }

// EndOfMonth returns the last day of the month.
func EndOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, DaysInMonth(year, month))
}

// DaysBetween counts calendar days from from to to; negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
