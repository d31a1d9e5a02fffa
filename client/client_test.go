/*
client_test.go - End-to-end tests against the real router

Tests for:
- Entity lists paging and filtering over HTTP
- Resource CRUD and error mapping (APIError -> generic sentinels)
- Store.RefreshAll
- Derived view calls
- Rate limiting
*/
package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/client"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/store/sqlite"
	"github.com/warp/budget-engine/wire"
)

var testNow = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServer serves the full API over a fresh SQLite file seeded with scenario.
func newServer(t *testing.T, scenario string) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if scenario != "" {
		require.NoError(t, api.Seed(context.Background(), store, scenario, testNow))
	}

	h := api.NewHandler(store, quietLogger())
	h.SetClock(func() time.Time { return testNow })

	srv := httptest.NewServer(api.NewRouter(h, nil))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL, append([]client.Option{client.WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "/api", "http://"} {
		_, err := client.New(u)
		assert.Error(t, err, u)
	}
}

// =============================================================================
// ENTITY LISTS
// =============================================================================

func TestEntityList_OverHTTP(t *testing.T) {
	// GIVEN: The starter scenario (8 transactions) behind a real server
	srv := newServer(t, "starter")
	store := client.NewStore(newClient(t, srv), generic.WithRowsPerPage(5))
	ctx := context.Background()

	// WHEN: The second page is requested
	require.NoError(t, store.Transactions.GetPage(ctx, 1, 5, nil))

	// THEN: The remaining three rows and the full total are stored
	assert.Len(t, store.Transactions.Data(), 3)
	assert.Equal(t, 8, store.Transactions.TotalEntityCount())
	assert.Equal(t, generic.Pagination{CurrentPage: 1, RowsPerPage: 5}, store.Transactions.Pagination())

	// WHEN: A keyword filter is applied
	require.NoError(t, store.Transactions.ApplyFilters(ctx, generic.Keyword("fresh")))

	// THEN: The list resets to page 0 with the filtered total
	assert.Equal(t, 3, store.Transactions.TotalEntityCount())
	assert.Equal(t, 0, store.Transactions.Pagination().CurrentPage)
	for _, tx := range store.Transactions.Data() {
		assert.Equal(t, "Fresh Market", tx.Receiver)
	}
}

func TestEntityList_TypedFiltersOverHTTP(t *testing.T) {
	srv := newServer(t, "starter")
	store := client.NewStore(newClient(t, srv))

	cat := "cat-transport"
	from := generic.Date(2025, time.March, 1)
	err := store.Transactions.GetPage(context.Background(), 0, 10, &generic.Extra{
		CategoryID:    &cat,
		ProcessedFrom: &from,
		OrderBy:       "processed_at",
	})
	require.NoError(t, err)

	require.Len(t, store.Transactions.Data(), 1)
	assert.Equal(t, "2025-03-03", store.Transactions.Data()[0].ProcessedAt)
}

func TestEntityList_ServerFailureKeepsState(t *testing.T) {
	// GIVEN: A list loaded once
	srv := newServer(t, "starter")
	store := client.NewStore(newClient(t, srv))
	ctx := context.Background()
	require.NoError(t, store.Transactions.GetPage(ctx, 0, 4, nil))
	before := store.Transactions.Snapshot()

	// WHEN: The server goes away
	srv.Close()
	err := store.Transactions.GetPage(ctx, 1, 4, nil)

	// THEN: The error is recorded and data, count and pagination are kept
	require.Error(t, err)
	status := store.Transactions.Status()
	assert.Equal(t, generic.StatusFailed, status.Status)
	assert.Error(t, status.Err)
	assert.Equal(t, before.Data, store.Transactions.Data())
	assert.Equal(t, before.Count, store.Transactions.TotalEntityCount())
	assert.Equal(t, 0, store.Transactions.Pagination().CurrentPage)
}

func TestStore_RefreshAll(t *testing.T) {
	srv := newServer(t, "household")
	store := client.NewStore(newClient(t, srv), generic.WithRowsPerPage(3))

	require.NoError(t, store.RefreshAll(context.Background()))

	assert.Equal(t, 6, store.Categories.TotalEntityCount())
	assert.Len(t, store.Categories.Data(), 3)
	assert.Equal(t, 2, store.PaymentMethods.TotalEntityCount())
	assert.Equal(t, 8, store.Transactions.TotalEntityCount())
	assert.Equal(t, 2, store.Budgets.TotalEntityCount())
	assert.Equal(t, 4, store.RecurringPayments.TotalEntityCount())

	store.Clear()
	assert.Empty(t, store.Transactions.Data())
	assert.Equal(t, 0, store.Transactions.TotalEntityCount())
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestResource_CRUD(t *testing.T) {
	srv := newServer(t, "starter")
	store := client.NewStore(newClient(t, srv))
	ctx := context.Background()

	created, err := store.TransactionAPI.Create(ctx, wire.TransactionDTO{
		Receiver:        "Book Shop",
		Amount:          decimal.RequireFromString("-18.50"),
		CategoryID:      "cat-entertainment",
		PaymentMethodID: "pm-card",
		ProcessedAt:     "2025-03-19",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "EUR", created.Currency)

	created.Information = "Novel"
	updated, err := store.TransactionAPI.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "Novel", updated.Information)

	got, err := store.TransactionAPI.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-18.5")))

	require.NoError(t, store.TransactionAPI.Delete(ctx, created.ID))

	_, err = store.TransactionAPI.Get(ctx, created.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.True(t, generic.IsNotFound(err))
	assert.True(t, client.IsAPIError(err, http.StatusNotFound))
}

func TestResource_ValidationError(t *testing.T) {
	srv := newServer(t, "")
	store := client.NewStore(newClient(t, srv))

	_, err := store.CategoryAPI.Create(context.Background(), wire.CategoryDTO{Name: ""})

	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid category", apiErr.Message)
	assert.Contains(t, apiErr.Details, "name")
}

func TestResource_FetchRejectsBadWindowLocally(t *testing.T) {
	srv := newServer(t, "")
	store := client.NewStore(newClient(t, srv))

	_, err := store.CategoryAPI.Fetch(context.Background(), generic.Query{From: 5, To: 1})
	assert.ErrorIs(t, err, generic.ErrInvalidWindow)
}

func TestAPIError_UnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv, client.WithHTTPClient(srv.Client()))
	_, err := c.Upcoming(context.Background(), 7)

	require.Error(t, err)
	assert.True(t, client.IsAPIError(err, http.StatusBadGateway))
	assert.False(t, generic.IsNotFound(err))
	assert.False(t, generic.IsClientError(err))
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func TestDerivedViews(t *testing.T) {
	srv := newServer(t, "household")
	c := newClient(t, srv)
	ctx := context.Background()

	upcoming, err := c.Upcoming(ctx, 14)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "rp-gym", upcoming[0].Payment.ID)
	assert.Equal(t, "rp-rent", upcoming[1].Payment.ID)

	progress, err := c.BudgetProgress(ctx, "budget-food")
	require.NoError(t, err)
	assert.True(t, progress.Spent.Equal(decimal.RequireFromString("77.1")))

	_, err = c.BudgetProgress(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	stats, err := c.CategoryStats(ctx, "2025-02")
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	assert.Equal(t, "cat-groceries", stats[0].CategoryID)

	summary, err := c.RunRecurring(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", summary.Date)
	assert.Equal(t, 0, summary.Booked)
}

// =============================================================================
// RATE LIMITING
// =============================================================================

func TestRateLimit_WaitRespectsContext(t *testing.T) {
	srv := newServer(t, "")
	// One request per 100 seconds, burst 1.
	c := newClient(t, srv, client.WithRateLimit(0.01))

	_, err := c.Upcoming(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Upcoming(ctx, 1)
	assert.Error(t, err)
	assert.False(t, client.IsAPIError(err, 0))
}
