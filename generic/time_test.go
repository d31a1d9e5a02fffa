package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/generic"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2100, time.February, 28},
		{2000, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generic.DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestClampDay(t *testing.T) {
	assert.Equal(t, 28, generic.ClampDay(2025, time.February, 31))
	assert.Equal(t, 29, generic.ClampDay(2024, time.February, 30))
	assert.Equal(t, 30, generic.ClampDay(2025, time.June, 31))
	assert.Equal(t, 15, generic.ClampDay(2025, time.June, 15))
}

func TestAddMonths_NeverOverflows(t *testing.T) {
	// time.AddDate(0, 1, 0) on Jan 31 lands on Mar 3
	jan31 := generic.Date(2025, time.January, 31)
	assert.Equal(t, generic.Date(2025, time.February, 1), generic.AddMonths(jan31, 1))

	dec := generic.Date(2025, time.December, 20)
	assert.Equal(t, generic.Date(2026, time.January, 1), generic.AddMonths(dec, 1))
	assert.Equal(t, generic.Date(2025, time.November, 1), generic.AddMonths(dec, -1))
}

func TestMonthBoundsAndDaysBetween(t *testing.T) {
	assert.Equal(t, generic.Date(2024, time.February, 1), generic.StartOfMonth(2024, time.February))
	assert.Equal(t, generic.Date(2024, time.February, 29), generic.EndOfMonth(2024, time.February))
	assert.Equal(t, generic.Date(2025, time.February, 28), generic.EndOfMonth(2025, time.February))

	from := time.Date(2025, time.March, 30, 23, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, generic.DaysBetween(from, to))
	assert.Equal(t, -3, generic.DaysBetween(to, from))
}

func TestDateOf_DropsClock(t *testing.T) {
	ts := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, generic.Date(2025, time.March, 10), generic.DateOf(ts))
	assert.True(t, generic.SameDay(ts, generic.Date(2025, time.March, 10)))
}

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, generic.Date(2025, time.February, 28), d)

	_, err = generic.ParseDate("28/02/2025")
	assert.Error(t, err)
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod_ContainsIsInclusive(t *testing.T) {
	p := generic.Period{
		Start: generic.Date(2025, time.March, 1),
		End:   generic.Date(2025, time.March, 31),
	}

	assert.True(t, p.Contains(generic.Date(2025, time.March, 1)))
	assert.True(t, p.Contains(time.Date(2025, time.March, 31, 18, 30, 0, 0, time.UTC)))
	assert.False(t, p.Contains(generic.Date(2025, time.February, 28)))
	assert.False(t, p.Contains(generic.Date(2025, time.April, 1)))
	assert.Equal(t, 31, p.Days())
}

func TestPeriod_Validate(t *testing.T) {
	ok := generic.Period{Start: generic.Date(2025, 3, 1), End: generic.Date(2025, 3, 1)}
	assert.NoError(t, ok.Validate())

	bad := generic.Period{Start: generic.Date(2025, 3, 2), End: generic.Date(2025, 3, 1)}
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrValidation)
	assert.True(t, generic.IsClientError(err))
}

func TestMonthPeriod(t *testing.T) {
	p := generic.MonthPeriod(time.Date(2024, time.February, 17, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, generic.Date(2024, time.February, 1), p.Start)
	assert.Equal(t, generic.Date(2024, time.February, 29), p.End)

	parsed, err := generic.ParseMonth("2025-11")
	require.NoError(t, err)
	assert.Equal(t, generic.Date(2025, time.November, 30), parsed.End)

	_, err = generic.ParseMonth("November")
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// QUERY
// =============================================================================

func TestQuery_Validate(t *testing.T) {
	assert.NoError(t, generic.Query{From: 0, To: 0}.Validate())
	assert.NoError(t, generic.Query{From: 8, To: 16}.Validate())
	assert.ErrorIs(t, generic.Query{From: -1, To: 8}.Validate(), generic.ErrInvalidWindow)
	assert.ErrorIs(t, generic.Query{From: 10, To: 5}.Validate(), generic.ErrInvalidWindow)
}

func TestWindow_ClampsToResultSet(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, generic.Window(all, generic.Query{From: 2, To: 4}))
	assert.Equal(t, []int{5}, generic.Window(all, generic.Query{From: 4, To: 10}))
	assert.Empty(t, generic.Window(all, generic.Query{From: 8, To: 10}))
}

func TestAmount_String(t *testing.T) {
	a := generic.NewAmount(-12.5, generic.CurrencyEUR)
	assert.Equal(t, "-12.50 EUR", a.String())
	assert.True(t, a.IsNegative())
	assert.Equal(t, "12.50 EUR", a.Abs().String())

	sum := a.Add(generic.NewAmount(20, generic.CurrencyEUR))
	assert.Equal(t, "7.50 EUR", sum.String())
}

func TestContainsFold(t *testing.T) {
	assert.True(t, generic.ContainsFold("", "anything"))
	assert.True(t, generic.ContainsFold("  ", "anything"))
	assert.True(t, generic.ContainsFold("RENT", "Monthly rent"))
	assert.False(t, generic.ContainsFold("gym", "Monthly rent", "Landlord"))
}
