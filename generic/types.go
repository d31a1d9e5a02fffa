/*
Package generic provides the entity-agnostic core of the budget engine.

PURPOSE:
  This package contains the types and algorithms every budgeting entity
  shares. Whether listing transactions, budgets or payment methods, the same
  query window, page type, repository contract and paginated list state
  machine handle them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A money value with a currency (e.g., -42.50 EUR)
  - Entity: The contract every listable record implements
  - ID: Opaque string identifier, generated as a UUID

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Generic over T: Stores and lists never know the concrete entity
  3. No globals: every list or store is an explicit value handed around

USAGE:
  amount := generic.NewAmount(-12.99, generic.CurrencyEUR)
  id := generic.NewID()

SEE ALSO:
  - query.go: Query window and typed filters
  - list.go: EntityList state machine
  - store.go: Repository contract
*/
package generic

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money value with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// DefaultCurrency is used when a record arrives without one.
const DefaultCurrency = CurrencyEUR

func NewAmount(value float64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewAmountFromString(value string, currency Currency) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Currency: currency}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount        { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) Abs() Amount         { return Amount{Value: a.Value.Abs(), Currency: a.Currency} }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }
func (a Amount) IsNegative() bool    { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool { return a.Value.Equal(b.Value) && a.Currency == b.Currency }
func (a Amount) String() string      { return a.Value.StringFixed(2) + " " + string(a.Currency) }

// =============================================================================
// ENTITY - Contract for anything an EntityList or Repository can hold
// =============================================================================

// Entity is implemented by every budgeting record.
type Entity interface {
	// EntityID returns the primary key.
	EntityID() string

	// Matches reports whether the record contains keyword in one of its
	// searchable text fields. Comparison is case-insensitive.
	Matches(keyword string) bool

	// SortKey orders records in list results (newest first).
	SortKey() time.Time
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// ContainsFold reports whether any of fields contains keyword, ignoring case.
// An empty keyword matches everything.
func ContainsFold(keyword string, fields ...string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return true
	}
	needle := strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
