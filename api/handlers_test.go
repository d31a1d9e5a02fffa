/*
handlers_test.go - HTTP tests for the REST API

Tests for:
- Generic CRUD endpoints (create, get, update, delete, validation)
- List window, keyword search and typed filters
- Derived views (budget progress, upcoming payments, category stats)
- Error status mapping
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/store/sqlite"
	"github.com/warp/budget-engine/wire"
)

// testNow is a Thursday in the middle of March.
var testNow = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *sqlite.Store
	handler *Handler
	router  *chi.Mux
}

func newTestEnv(t *testing.T, scenario string, now time.Time) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if scenario != "" {
		require.NoError(t, Seed(context.Background(), store, scenario, now))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store, logger)
	h.SetClock(func() time.Time { return now })

	return &testEnv{store: store, handler: h, router: NewRouter(h, nil)}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// CRUD
// =============================================================================

func TestCategories_CreateGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t, "", testNow)

	// GIVEN: A new category is created
	rec := env.do(t, http.MethodPost, "/api/categories", wire.CategoryDTO{Name: "Travel", Description: "Trips"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[wire.CategoryDTO](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "2025-03-20T10:00:00Z", created.CreatedAt)

	// WHEN: It is renamed
	rec = env.do(t, http.MethodPut, "/api/categories/"+created.ID, wire.CategoryDTO{Name: "Holidays"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The new name is stored and the creation time kept
	rec = env.do(t, http.MethodGet, "/api/categories/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[wire.CategoryDTO](t, rec)
	assert.Equal(t, "Holidays", got.Name)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	rec = env.do(t, http.MethodDelete, "/api/categories/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, "starter", testNow)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"empty category name", "/api/categories", wire.CategoryDTO{Name: " "}},
		{"payment method without provider", "/api/payment-methods", wire.PaymentMethodDTO{Name: "Card"}},
		{
			"zero amount transaction",
			"/api/transactions",
			wire.TransactionDTO{Receiver: "Shop", CategoryID: "cat-groceries", PaymentMethodID: "pm-card", ProcessedAt: "2025-03-01"},
		},
		{
			"bad processed_at",
			"/api/transactions",
			wire.TransactionDTO{Receiver: "Shop", Amount: decimal.NewFromInt(-5), CategoryID: "cat-groceries", PaymentMethodID: "pm-card", ProcessedAt: "yesterday"},
		},
		{
			"execution day out of range",
			"/api/recurring-payments",
			wire.RecurringPaymentDTO{Receiver: "Gym", Amount: decimal.NewFromInt(-30), CategoryID: "cat-health", PaymentMethodID: "pm-card", ExecuteAt: 32},
		},
		{
			"budget ending before it starts",
			"/api/budgets",
			wire.BudgetDTO{Label: "Food", Amount: decimal.NewFromInt(100), CategoryIDs: []string{"cat-groceries"}, Start: "2025-03-31", End: "2025-03-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[wire.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	env := newTestEnv(t, "", testNow)

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate_UnknownID(t *testing.T) {
	env := newTestEnv(t, "", testNow)
	rec := env.do(t, http.MethodPut, "/api/categories/missing", wire.CategoryDTO{Name: "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// LIST
// =============================================================================

func TestListTransactions_WindowAndTotal(t *testing.T) {
	// GIVEN: The starter scenario (8 transactions)
	env := newTestEnv(t, "starter", testNow)

	// WHEN: The first five rows are requested
	rec := env.do(t, http.MethodGet, "/api/transactions?from=0&to=5", nil)

	// THEN: Five rows come back with the full total, newest first
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[wire.ListResponse[wire.TransactionDTO]](t, rec)
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, 8, resp.TotalCount)
	assert.Equal(t, "2025-03-03", resp.Data[0].ProcessedAt)
}

func TestListTransactions_SearchAndFilters(t *testing.T) {
	env := newTestEnv(t, "starter", testNow)

	tests := []struct {
		query string
		total int
	}{
		{"search=fresh", 3},
		{"search=FRESH%20market", 3},
		{"category=cat-transport", 2},
		{"payment_method=pm-account", 2},
		{"processed_from=2025-03-01&processed_to=2025-03-31", 3},
		{"search=fresh&processed_from=2025-03-01", 1},
		{"search=nobody", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/transactions?from=0&to=50&"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[wire.ListResponse[wire.TransactionDTO]](t, rec)
			assert.Equal(t, tt.total, resp.TotalCount)
			assert.Len(t, resp.Data, tt.total)
		})
	}
}

func TestList_DefaultWindowAndEmptyData(t *testing.T) {
	env := newTestEnv(t, "", testNow)

	rec := env.do(t, http.MethodGet, "/api/budgets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// Empty lists serialize as [] not null
	assert.JSONEq(t, `{"data":[],"totalCount":0}`, rec.Body.String())
}

func TestList_InvalidQuery(t *testing.T) {
	env := newTestEnv(t, "starter", testNow)

	for _, q := range []string{
		"from=5&to=2",
		"from=-1&to=5",
		"from=abc",
		"from=0&to=1000",
		"processed_from=03/01/2025",
		"desc=maybe",
		"order_by=password",
	} {
		rec := env.do(t, http.MethodGet, "/api/transactions?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestList_Ordering(t *testing.T) {
	env := newTestEnv(t, "starter", testNow)

	rec := env.do(t, http.MethodGet, "/api/transactions?from=0&to=1&order_by=amount&desc=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[wire.ListResponse[wire.TransactionDTO]](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ACME Corp", resp.Data[0].Receiver)
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func TestGetBudgetProgress(t *testing.T) {
	env := newTestEnv(t, "household", testNow)

	rec := env.do(t, http.MethodGet, "/api/budgets/budget-food/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decode[wire.BudgetProgressDTO](t, rec)
	assert.Equal(t, "budget-food", p.Budget.ID)
	assert.True(t, p.Spent.Equal(decimal.RequireFromString("77.10")), p.Spent.String())
	assert.True(t, p.Remaining.Equal(decimal.RequireFromString("322.90")), p.Remaining.String())
	assert.False(t, p.Overspent)

	rec = env.do(t, http.MethodGet, "/api/budgets/budget-none/progress", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUpcomingPayments(t *testing.T) {
	// GIVEN: The household scenario on March 20th
	env := newTestEnv(t, "household", testNow)

	// WHEN: The next 30 days are listed
	rec := env.do(t, http.MethodGet, "/api/recurring-payments/upcoming?days=30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upcoming := decode[[]wire.UpcomingPaymentDTO](t, rec)

	// THEN: Gym (day 31), rent (day 1) and streaming (day 15), paused excluded
	require.Len(t, upcoming, 3)
	assert.Equal(t, "rp-gym", upcoming[0].Payment.ID)
	assert.Equal(t, "2025-03-31", upcoming[0].Date)
	assert.Equal(t, "rp-rent", upcoming[1].Payment.ID)
	assert.Equal(t, "2025-04-01", upcoming[1].Date)
	assert.Equal(t, "rp-streaming", upcoming[2].Payment.ID)
	assert.Equal(t, "2025-04-15", upcoming[2].Date)

	rec = env.do(t, http.MethodGet, "/api/recurring-payments/upcoming?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecurringPayment_NextExecutionField(t *testing.T) {
	env := newTestEnv(t, "household", testNow)

	rec := env.do(t, http.MethodGet, "/api/recurring-payments/rp-gym", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-03-31", decode[wire.RecurringPaymentDTO](t, rec).NextExecution)

	// Paused payments have no next execution
	rec = env.do(t, http.MethodGet, "/api/recurring-payments/rp-magazine", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[wire.RecurringPaymentDTO](t, rec).NextExecution)
}

func TestGetCategoryStats(t *testing.T) {
	env := newTestEnv(t, "starter", testNow)

	rec := env.do(t, http.MethodGet, "/api/stats/categories?month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[[]wire.CategoryTotalDTO](t, rec)

	require.Len(t, stats, 3)
	assert.Equal(t, "cat-groceries", stats[0].CategoryID)
	assert.Equal(t, "Groceries", stats[0].CategoryName)
	assert.True(t, stats[0].Expenses.Equal(decimal.RequireFromString("77.10")))
	assert.Equal(t, "cat-transport", stats[1].CategoryID)
	assert.Equal(t, "cat-salary", stats[2].CategoryID)
	assert.True(t, stats[2].Income.Equal(decimal.NewFromInt(3200)))

	rec = env.do(t, http.MethodGet, "/api/stats/categories?month=march", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "", testNow)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
