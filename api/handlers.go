/*
handlers.go - HTTP API handlers for the budget engine

PURPOSE:
  Exposes the budgeting entities via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the store and the budget package.

ENDPOINTS:
  Entities (each: GET / list, POST / create, GET|PUT|DELETE /{id}):
    /api/categories
    /api/payment-methods
    /api/transactions
    /api/budgets
    /api/recurring-payments

  List query parameters:
    from, to          Half-open row window [from, to)
    search            Case-insensitive keyword
    category          Category ID filter
    payment_method    Payment method ID filter
    processed_from    YYYY-MM-DD, inclusive (transactions)
    processed_to      YYYY-MM-DD, inclusive (transactions)
    order_by, desc    Sort column and direction

  Derived views:
    GET  /api/budgets/{id}/progress          Spent/remaining for a budget
    GET  /api/recurring-payments/upcoming    Next executions (?days=30)
    GET  /api/stats/categories               Spending per category (?month=YYYY-MM)

  Admin:
    POST /api/admin/recurring/run            Book due recurring payments now
    GET  /api/admin/recurring/executions     Scheduler history

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Scheduler: Recurring payment booking
  - now: Clock, replaceable in tests

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid query window
  - 404: Record not found
  - 409: Conflict (duplicate execution)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Sessions are handled by the deployment in front of
  this service.

SEE ALSO:
  - resource.go: Generic CRUD endpoints
  - wire/dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/store/sqlite"
	"github.com/warp/budget-engine/wire"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Scheduler *RecurringPaymentScheduler

	log *slog.Logger

	mu              sync.RWMutex
	now             func() time.Time
	currentScenario string
}

// NewHandler creates a new handler with the given store. The scheduler is
// created but not started.
func NewHandler(store *sqlite.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:     store,
		Scheduler: NewRecurringPaymentScheduler(store, logger),
		log:       logger,
		now:       time.Now,
	}
}

// SetClock replaces the handler's and scheduler's clock (tests, demos).
func (h *Handler) SetClock(now func() time.Time) {
	h.mu.Lock()
	h.now = now
	h.mu.Unlock()
	if h.Scheduler != nil {
		h.Scheduler.setClock(now)
	}
}

func (h *Handler) clock() time.Time {
	h.mu.RLock()
	now := h.now
	h.mu.RUnlock()
	return now()
}

func (h *Handler) scenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// =============================================================================
// ENTITY RESOURCES
// =============================================================================

func (h *Handler) categories() resource[budget.Category, wire.CategoryDTO] {
	return resource[budget.Category, wire.CategoryDTO]{
		name:    "category",
		repo:    h.Store.Categories(),
		toDTO:   wire.ToCategoryDTO,
		fromDTO: wire.FromCategoryDTO,
		stamp: func(c budget.Category, id string, at time.Time) budget.Category {
			c.ID, c.CreatedAt = id, at
			return c
		},
		createdAt: func(c budget.Category) time.Time { return c.CreatedAt },
		now:       h.clock,
	}
}

func (h *Handler) paymentMethods() resource[budget.PaymentMethod, wire.PaymentMethodDTO] {
	return resource[budget.PaymentMethod, wire.PaymentMethodDTO]{
		name:    "payment method",
		repo:    h.Store.PaymentMethods(),
		toDTO:   wire.ToPaymentMethodDTO,
		fromDTO: wire.FromPaymentMethodDTO,
		stamp: func(p budget.PaymentMethod, id string, at time.Time) budget.PaymentMethod {
			p.ID, p.CreatedAt = id, at
			return p
		},
		createdAt: func(p budget.PaymentMethod) time.Time { return p.CreatedAt },
		now:       h.clock,
	}
}

func (h *Handler) transactions() resource[budget.Transaction, wire.TransactionDTO] {
	return resource[budget.Transaction, wire.TransactionDTO]{
		name:    "transaction",
		repo:    h.Store.Transactions(),
		toDTO:   wire.ToTransactionDTO,
		fromDTO: wire.FromTransactionDTO,
		stamp: func(t budget.Transaction, id string, at time.Time) budget.Transaction {
			t.ID, t.CreatedAt = id, at
			return t
		},
		createdAt: func(t budget.Transaction) time.Time { return t.CreatedAt },
		now:       h.clock,
	}
}

func (h *Handler) budgets() resource[budget.Budget, wire.BudgetDTO] {
	return resource[budget.Budget, wire.BudgetDTO]{
		name:    "budget",
		repo:    h.Store.Budgets(),
		toDTO:   wire.ToBudgetDTO,
		fromDTO: wire.FromBudgetDTO,
		stamp: func(b budget.Budget, id string, at time.Time) budget.Budget {
			b.ID, b.CreatedAt = id, at
			return b
		},
		createdAt: func(b budget.Budget) time.Time { return b.CreatedAt },
		now:       h.clock,
	}
}

func (h *Handler) recurringPayments() resource[budget.RecurringPayment, wire.RecurringPaymentDTO] {
	return resource[budget.RecurringPayment, wire.RecurringPaymentDTO]{
		name: "recurring payment",
		repo: h.Store.RecurringPayments(),
		toDTO: func(r budget.RecurringPayment) wire.RecurringPaymentDTO {
			return wire.ToRecurringPaymentDTO(r, h.clock())
		},
		fromDTO: wire.FromRecurringPaymentDTO,
		stamp: func(r budget.RecurringPayment, id string, at time.Time) budget.RecurringPayment {
			r.ID, r.CreatedAt = id, at
			return r
		},
		createdAt: func(r budget.RecurringPayment) time.Time { return r.CreatedAt },
		now:       h.clock,
	}
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// GetBudgetProgress returns spent/remaining for one budget.
func (h *Handler) GetBudgetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.Store.Budgets().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Failed to get budget", err)
		return
	}

	txs, err := h.Store.TransactionsInPeriod(ctx, b.Period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}

	p := budget.BudgetProgress(b, txs)
	writeJSON(w, http.StatusOK, wire.BudgetProgressDTO{
		Budget:    wire.ToBudgetDTO(b),
		Spent:     p.Spent.Value,
		Remaining: p.Remaining.Value,
		Percent:   p.Percent,
		Overspent: p.Overspent(),
	})
}

// ListUpcomingPayments returns the next executions within ?days= (default 30).
func (h *Handler) ListUpcomingPayments(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query().Get("days"), 30)
	if err != nil || days < 0 {
		writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
		return
	}

	payments, err := h.Store.ActiveRecurringPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recurring payments", err)
		return
	}

	now := h.clock()
	upcoming := budget.UpcomingPayments(payments, now, days)
	dtos := make([]wire.UpcomingPaymentDTO, len(upcoming))
	for i, u := range upcoming {
		dtos[i] = wire.UpcomingPaymentDTO{
			Payment: wire.ToRecurringPaymentDTO(u.Payment, now),
			Date:    u.Date.Format(generic.DateLayout),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCategoryStats returns spending per category for ?month= (default current).
func (h *Handler) GetCategoryStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := generic.MonthPeriod(h.clock())
	if m := r.URL.Query().Get("month"); m != "" {
		p, err := generic.ParseMonth(m)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		period = p
	}

	txs, err := h.Store.TransactionsInPeriod(ctx, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}

	totals := budget.CategorySpending(txs, period)
	dtos := make([]wire.CategoryTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = wire.CategoryTotalDTO{
			CategoryID: t.CategoryID,
			Income:     t.Income,
			Expenses:   t.Expenses,
			Count:      t.Count,
		}
		if c, err := h.Store.Categories().Get(ctx, t.CategoryID); err == nil {
			dtos[i].CategoryName = c.Name
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRecurringRun books all due recurring payments immediately.
func (h *Handler) TriggerRecurringRun(w http.ResponseWriter, r *http.Request) {
	summary := h.Scheduler.RunNow(r.Context())
	writeJSON(w, http.StatusOK, wire.RunSummaryDTO{
		Date:    summary.Date.Format(generic.DateLayout),
		Booked:  summary.Booked,
		Skipped: summary.Skipped,
		Failed:  summary.Failed,
	})
}

// ListExecutions returns scheduler history (?limit=, default 100).
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	execs, err := h.Store.ListExecutions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list executions", err)
		return
	}

	dtos := make([]wire.ExecutionDTO, len(execs))
	for i, e := range execs {
		dtos[i] = wire.ExecutionDTO{
			ID:                 e.ID,
			RecurringPaymentID: e.RecurringPaymentID,
			ExecutionDate:      e.ExecutionDate.Format(generic.DateLayout),
			TransactionID:      e.TransactionID,
			Status:             e.Status,
			Error:              e.Error,
			CreatedAt:          wire.FormatTimestamp(e.CreatedAt),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := wire.ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError picks the status from the error kind.
func writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrDuplicateExecution):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
