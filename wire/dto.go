/*
Package wire holds the JSON data transfer objects of the REST API.

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Request and response bodies for one entity
  - *Response: Complex response wrappers

LIST ENVELOPE:
  Every list endpoint answers {"data": [...], "totalCount": n}. The client
  package decodes the same envelope into generic.Page.

AMOUNTS:
  Money is a decimal.Decimal serialized as a JSON string ("-12.50") plus an
  ISO currency code. Numbers are accepted on input.

SEE ALSO:
  - api/handlers.go: Encodes these types
  - client/client.go: Decodes these types
*/
package wire

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// ENVELOPES
// =============================================================================

// ListResponse is the body of every list endpoint.
type ListResponse[D any] struct {
	Data       []D `json:"data"`
	TotalCount int `json:"totalCount"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// ENTITY DTOS
// =============================================================================

// CategoryDTO represents a category.
type CategoryDTO struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// PaymentMethodDTO represents a payment method.
type PaymentMethodDTO struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TransactionDTO represents a transaction. Negative amounts are expenses.
type TransactionDTO struct {
	ID                 string          `json:"id,omitempty"`
	Receiver           string          `json:"receiver"`
	Information        string          `json:"information,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency,omitempty"`
	CategoryID         string          `json:"category_id"`
	PaymentMethodID    string          `json:"payment_method_id"`
	ProcessedAt        string          `json:"processed_at"`
	RecurringPaymentID string          `json:"recurring_payment_id,omitempty"`
	CreatedAt          string          `json:"created_at,omitempty"`
}

// BudgetDTO represents a budget.
type BudgetDTO struct {
	ID          string          `json:"id,omitempty"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	CategoryIDs []string        `json:"category_ids"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// RecurringPaymentDTO represents a recurring payment (subscription).
type RecurringPaymentDTO struct {
	ID              string          `json:"id,omitempty"`
	Receiver        string          `json:"receiver"`
	Information     string          `json:"information,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	CategoryID      string          `json:"category_id"`
	PaymentMethodID string          `json:"payment_method_id"`
	ExecuteAt       int             `json:"execute_at"`
	Paused          bool            `json:"paused"`
	NextExecution   string          `json:"next_execution,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// BudgetProgressDTO is the spending state of a budget.
type BudgetProgressDTO struct {
	Budget    BudgetDTO       `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
	Overspent bool            `json:"overspent"`
}

// UpcomingPaymentDTO is a scheduled execution.
type UpcomingPaymentDTO struct {
	Payment RecurringPaymentDTO `json:"payment"`
	Date    string              `json:"date"`
}

// CategoryTotalDTO is a dashboard row.
type CategoryTotalDTO struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Count        int             `json:"count"`
}

// ExecutionDTO is one scheduler booking attempt.
type ExecutionDTO struct {
	ID                 string `json:"id"`
	RecurringPaymentID string `json:"recurring_payment_id"`
	ExecutionDate      string `json:"execution_date"`
	TransactionID      string `json:"transaction_id,omitempty"`
	Status             string `json:"status"`
	Error              string `json:"error,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// RunSummaryDTO reports a scheduler pass.
type RunSummaryDTO struct {
	Date    string `json:"date"`
	Booked  int    `json:"booked"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func CurrencyOf(s string) generic.Currency {
	if s == "" {
		return generic.DefaultCurrency
	}
	return generic.Currency(s)
}

// ParseDay accepts YYYY-MM-DD or RFC3339.
func ParseDay(field, s string) (time.Time, error) {
	if t, err := generic.ParseDate(s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, generic.Invalid(field, "expected YYYY-MM-DD")
}

func ToCategoryDTO(c budget.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   FormatTimestamp(c.CreatedAt),
	}
}

func FromCategoryDTO(d CategoryDTO) (budget.Category, error) {
	return budget.Category{Name: d.Name, Description: d.Description}, nil
}

func ToPaymentMethodDTO(p budget.PaymentMethod) PaymentMethodDTO {
	return PaymentMethodDTO{
		ID:          p.ID,
		Name:        p.Name,
		Provider:    p.Provider,
		Description: p.Description,
		CreatedAt:   FormatTimestamp(p.CreatedAt),
	}
}

func FromPaymentMethodDTO(d PaymentMethodDTO) (budget.PaymentMethod, error) {
	return budget.PaymentMethod{Name: d.Name, Provider: d.Provider, Description: d.Description}, nil
}

func ToTransactionDTO(t budget.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                 t.ID,
		Receiver:           t.Receiver,
		Information:        t.Information,
		Amount:             t.Amount.Value,
		Currency:           string(t.Amount.Currency),
		CategoryID:         t.CategoryID,
		PaymentMethodID:    t.PaymentMethodID,
		ProcessedAt:        t.ProcessedAt.Format(generic.DateLayout),
		RecurringPaymentID: t.RecurringPaymentID,
		CreatedAt:          FormatTimestamp(t.CreatedAt),
	}
}

func FromTransactionDTO(d TransactionDTO) (budget.Transaction, error) {
	processed, err := ParseDay("processed_at", d.ProcessedAt)
	if err != nil {
		return budget.Transaction{}, err
	}
	return budget.Transaction{
		Receiver:           d.Receiver,
		Information:        d.Information,
		Amount:             generic.Amount{Value: d.Amount, Currency: CurrencyOf(d.Currency)},
		CategoryID:         d.CategoryID,
		PaymentMethodID:    d.PaymentMethodID,
		ProcessedAt:        generic.DateOf(processed),
		RecurringPaymentID: d.RecurringPaymentID,
	}, nil
}

func ToBudgetDTO(b budget.Budget) BudgetDTO {
	ids := b.CategoryIDs
	if ids == nil {
		ids = []string{}
	}
	return BudgetDTO{
		ID:          b.ID,
		Label:       b.Label,
		Description: b.Description,
		Amount:      b.Amount.Value,
		Currency:    string(b.Amount.Currency),
		CategoryIDs: ids,
		Start:       b.Period.Start.Format(generic.DateLayout),
		End:         b.Period.End.Format(generic.DateLayout),
		CreatedAt:   FormatTimestamp(b.CreatedAt),
	}
}

func FromBudgetDTO(d BudgetDTO) (budget.Budget, error) {
	start, err := ParseDay("start", d.Start)
	if err != nil {
		return budget.Budget{}, err
	}
	end, err := ParseDay("end", d.End)
	if err != nil {
		return budget.Budget{}, err
	}
	return budget.Budget{
		Label:       d.Label,
		Description: d.Description,
		Amount:      generic.Amount{Value: d.Amount, Currency: CurrencyOf(d.Currency)},
		CategoryIDs: d.CategoryIDs,
		Period:      generic.Period{Start: generic.DateOf(start), End: generic.DateOf(end)},
	}, nil
}

func ToRecurringPaymentDTO(r budget.RecurringPayment, now time.Time) RecurringPaymentDTO {
	dto := RecurringPaymentDTO{
		ID:              r.ID,
		Receiver:        r.Receiver,
		Information:     r.Information,
		Amount:          r.Amount.Value,
		Currency:        string(r.Amount.Currency),
		CategoryID:      r.CategoryID,
		PaymentMethodID: r.PaymentMethodID,
		ExecuteAt:       r.ExecuteAt,
		Paused:          r.Paused,
		CreatedAt:       FormatTimestamp(r.CreatedAt),
	}
	if next, err := r.NextExecution(now); err == nil && !r.Paused {
		dto.NextExecution = next.Format(generic.DateLayout)
	}
	return dto
}

func FromRecurringPaymentDTO(d RecurringPaymentDTO) (budget.RecurringPayment, error) {
	return budget.RecurringPayment{
		Receiver:        d.Receiver,
		Information:     d.Information,
		Amount:          generic.Amount{Value: d.Amount, Currency: CurrencyOf(d.Currency)},
		CategoryID:      d.CategoryID,
		PaymentMethodID: d.PaymentMethodID,
		ExecuteAt:       d.ExecuteAt,
		Paused:          d.Paused,
	}, nil
}
