/*
Package budget provides the budgeting entities and their derived views.

ENTITIES:
  Category:         Label transactions and budgets are grouped by
  PaymentMethod:    Card/account a transaction was paid with
  Transaction:      A booked income (>0) or expense (<0)
  Budget:           Spending limit for a set of categories over a period
  RecurringPayment: Subscription booked automatically on a day of month

Every entity implements generic.Entity so it can be stored in any
generic.Repository and listed with generic.EntityList.

SEE ALSO:
  - recurring.go: Next execution date calculation
  - summary.go: Budget progress and category spending
*/
package budget

import (
	"strings"
	"time"

	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// CATEGORY
// =============================================================================

type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

func (c Category) EntityID() string            { return c.ID }
func (c Category) SortKey() time.Time          { return c.CreatedAt }
func (c Category) Matches(keyword string) bool { return generic.ContainsFold(keyword, c.Name, c.Description) }

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return generic.Invalid("name", "is required")
	}
	return nil
}

// =============================================================================
// PAYMENT METHOD
// =============================================================================

type PaymentMethod struct {
	ID          string
	Name        string
	Provider    string
	Description string
	CreatedAt   time.Time
}

func (p PaymentMethod) EntityID() string   { return p.ID }
func (p PaymentMethod) SortKey() time.Time { return p.CreatedAt }
func (p PaymentMethod) Matches(keyword string) bool {
	return generic.ContainsFold(keyword, p.Name, p.Provider, p.Description)
}

func (p PaymentMethod) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return generic.Invalid("name", "is required")
	}
	if strings.TrimSpace(p.Provider) == "" {
		return generic.Invalid("provider", "is required")
	}
	return nil
}

// =============================================================================
// TRANSACTION
// =============================================================================

type Transaction struct {
	ID              string
	Receiver        string
	Information     string
	Amount          generic.Amount
	CategoryID      string
	PaymentMethodID string
	ProcessedAt     time.Time
	// RecurringPaymentID links transactions booked by the scheduler.
	RecurringPaymentID string
	CreatedAt          time.Time
}

func (t Transaction) EntityID() string   { return t.ID }
func (t Transaction) SortKey() time.Time { return t.ProcessedAt }
func (t Transaction) Matches(keyword string) bool {
	return generic.ContainsFold(keyword, t.Receiver, t.Information)
}

// MatchesExtra applies the typed list filters.
func (t Transaction) MatchesExtra(e generic.Extra) bool {
	if e.CategoryID != nil && t.CategoryID != *e.CategoryID {
		return false
	}
	if e.PaymentMethodID != nil && t.PaymentMethodID != *e.PaymentMethodID {
		return false
	}
	if e.ProcessedFrom != nil && generic.DateOf(t.ProcessedAt).Before(generic.DateOf(*e.ProcessedFrom)) {
		return false
	}
	if e.ProcessedTo != nil && generic.DateOf(t.ProcessedAt).After(generic.DateOf(*e.ProcessedTo)) {
		return false
	}
	return true
}

// IsExpense reports whether money left the account.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Receiver) == "" {
		return generic.Invalid("receiver", "is required")
	}
	if t.CategoryID == "" {
		return generic.Invalid("category_id", "is required")
	}
	if t.PaymentMethodID == "" {
		return generic.Invalid("payment_method_id", "is required")
	}
	if t.Amount.IsZero() {
		return generic.Invalid("amount", "must not be zero")
	}
	if t.ProcessedAt.IsZero() {
		return generic.Invalid("processed_at", "is required")
	}
	return nil
}

// =============================================================================
// BUDGET
// =============================================================================

type Budget struct {
	ID          string
	Label       string
	Description string
	// Amount is the spending limit for the period (positive).
	Amount      generic.Amount
	CategoryIDs []string
	Period      generic.Period
	CreatedAt   time.Time
}

func (b Budget) EntityID() string   { return b.ID }
func (b Budget) SortKey() time.Time { return b.CreatedAt }
func (b Budget) Matches(keyword string) bool {
	return generic.ContainsFold(keyword, b.Label, b.Description)
}

// Covers reports whether the budget tracks categoryID.
func (b Budget) Covers(categoryID string) bool {
	for _, id := range b.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Label) == "" {
		return generic.Invalid("label", "is required")
	}
	if !b.Amount.Value.IsPositive() {
		return generic.Invalid("amount", "must be positive")
	}
	if len(b.CategoryIDs) == 0 {
		return generic.Invalid("categories", "at least one category is required")
	}
	return b.Period.Validate()
}

// =============================================================================
// RECURRING PAYMENT
// =============================================================================

type RecurringPayment struct {
	ID              string
	Receiver        string
	Information     string
	Amount          generic.Amount
	CategoryID      string
	PaymentMethodID string
	// ExecuteAt is the day of month (1..31) the payment is booked on.
	ExecuteAt int
	Paused    bool
	CreatedAt time.Time
}

func (r RecurringPayment) EntityID() string   { return r.ID }
func (r RecurringPayment) SortKey() time.Time { return r.CreatedAt }
func (r RecurringPayment) Matches(keyword string) bool {
	return generic.ContainsFold(keyword, r.Receiver, r.Information)
}

func (r RecurringPayment) MatchesExtra(e generic.Extra) bool {
	if e.CategoryID != nil && r.CategoryID != *e.CategoryID {
		return false
	}
	if e.PaymentMethodID != nil && r.PaymentMethodID != *e.PaymentMethodID {
		return false
	}
	return true
}

func (r RecurringPayment) Validate() error {
	if strings.TrimSpace(r.Receiver) == "" {
		return generic.Invalid("receiver", "is required")
	}
	if r.ExecuteAt < 1 || r.ExecuteAt > 31 {
		return generic.ErrInvalidExecutionDay
	}
	if r.Amount.IsZero() {
		return generic.Invalid("amount", "must not be zero")
	}
	if r.CategoryID == "" {
		return generic.Invalid("category_id", "is required")
	}
	if r.PaymentMethodID == "" {
		return generic.Invalid("payment_method_id", "is required")
	}
	return nil
}
