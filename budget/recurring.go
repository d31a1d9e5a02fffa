package budget

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// NEXT EXECUTION - When does a recurring payment fire next?
// =============================================================================

// ExecutionDate returns the day the payment fires in the given month. Days
// past the end of the month are clamped to its last day.
func ExecutionDate(executeAt int, year int, month time.Month) time.Time {
	return generic.Date(year, month, generic.ClampDay(year, month, executeAt))
}

// NextExecution returns the first execution date on or after ref's calendar
// day. A payment whose day is today is still upcoming today.
//
//	NextExecution(15, 2025-03-10) = 2025-03-15
//	NextExecution(5,  2025-03-10) = 2025-04-05
//	NextExecution(31, 2025-02-01) = 2025-02-28
func NextExecution(executeAt int, ref time.Time) (time.Time, error) {
	if executeAt < 1 || executeAt > 31 {
		return time.Time{}, fmt.Errorf("%w: got %d", generic.ErrInvalidExecutionDay, executeAt)
	}

	today := generic.DateOf(ref)
	candidate := ExecutionDate(executeAt, today.Year(), today.Month())
	if !candidate.Before(today) {
		return candidate, nil
	}

	next := generic.AddMonths(today, 1)
	return ExecutionDate(executeAt, next.Year(), next.Month()), nil
}

// DueOn reports whether the payment fires on date's calendar day.
func (r RecurringPayment) DueOn(date time.Time) bool {
	if r.Paused || r.ExecuteAt < 1 || r.ExecuteAt > 31 {
		return false
	}
	return generic.SameDay(ExecutionDate(r.ExecuteAt, date.Year(), date.Month()), date)
}

// NextExecution returns the payment's next execution on or after ref.
func (r RecurringPayment) NextExecution(ref time.Time) (time.Time, error) {
	return NextExecution(r.ExecuteAt, ref)
}

// ToTransaction books the payment for date.
func (r RecurringPayment) ToTransaction(date time.Time, now time.Time) Transaction {
	return Transaction{
		ID:                 generic.NewID(),
		Receiver:           r.Receiver,
		Information:        r.Information,
		Amount:             r.Amount,
		CategoryID:         r.CategoryID,
		PaymentMethodID:    r.PaymentMethodID,
		ProcessedAt:        generic.DateOf(date),
		RecurringPaymentID: r.ID,
		CreatedAt:          now,
	}
}

// =============================================================================
// UPCOMING PAYMENTS
// =============================================================================

// Upcoming is a scheduled execution of a recurring payment.
type Upcoming struct {
	Payment RecurringPayment
	Date    time.Time
}

// UpcomingPayments lists the next execution of every active payment that
// falls within horizonDays of ref, soonest first.
func UpcomingPayments(payments []RecurringPayment, ref time.Time, horizonDays int) []Upcoming {
	limit := generic.DateOf(ref).AddDate(0, 0, horizonDays)

	var out []Upcoming
	for _, p := range payments {
		if p.Paused {
			continue
		}
		next, err := p.NextExecution(ref)
		if err != nil || next.After(limit) {
			continue
		}
		out = append(out, Upcoming{Payment: p, Date: next})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Payment.Receiver < out[j].Payment.Receiver
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
