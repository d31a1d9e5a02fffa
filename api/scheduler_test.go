package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
)

// aprilFirst is an execution day for the rent and the day after the gym.
var aprilFirst = time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)

func TestScheduler_BooksDuePaymentsOnce(t *testing.T) {
	// GIVEN: The household scenario on April 1st (rent day 1, gym day 31)
	env := newTestEnv(t, "household", aprilFirst)
	ctx := context.Background()

	// WHEN: The scheduler runs
	first := env.handler.Scheduler.RunNow(ctx)

	// THEN: Rent (today) and gym (March 31, inside the lookback) are booked
	assert.Equal(t, 2, first.Booked)
	assert.Equal(t, 0, first.Failed)
	assert.Equal(t, generic.Date(2025, time.April, 1), first.Date)

	booked, err := env.store.Transactions().List(ctx, generic.Query{
		From: 0, To: 10,
		Extra: generic.Extra{ProcessedFrom: ptr(generic.Date(2025, time.March, 31))},
	})
	require.NoError(t, err)
	ids := map[string]string{}
	for _, tx := range booked.Data {
		ids[tx.RecurringPaymentID] = tx.ProcessedAt.Format(generic.DateLayout)
	}
	assert.Equal(t, "2025-04-01", ids["rp-rent"])
	assert.Equal(t, "2025-03-31", ids["rp-gym"])

	before, err := env.store.Transactions().List(ctx, generic.Query{From: 0, To: 100})
	require.NoError(t, err)

	// WHEN: It runs again the same day
	second := env.handler.Scheduler.RunNow(ctx)

	// THEN: Nothing new is booked
	assert.Equal(t, 0, second.Booked)
	assert.Equal(t, 2, second.Skipped)

	after, err := env.store.Transactions().List(ctx, generic.Query{From: 0, To: 100})
	require.NoError(t, err)
	assert.Equal(t, before.Total(), after.Total())
}

func TestScheduler_SkipsPausedAndNotYetCreated(t *testing.T) {
	env := newTestEnv(t, "", aprilFirst)
	ctx := context.Background()
	repo := env.store.RecurringPayments()

	payments := []budget.RecurringPayment{
		{
			// Created today, so March 31 is not caught up.
			ID: "rp-new", Receiver: "New Gym", Amount: generic.NewAmount(-20, generic.CurrencyEUR),
			CategoryID: "cat-health", PaymentMethodID: "pm-card", ExecuteAt: 31, CreatedAt: aprilFirst,
		},
		{
			ID: "rp-paused", Receiver: "Weekly News", Amount: generic.NewAmount(-4.5, generic.CurrencyEUR),
			CategoryID: "cat-entertainment", PaymentMethodID: "pm-card", ExecuteAt: 1, Paused: true,
			CreatedAt: aprilFirst.AddDate(-1, 0, 0),
		},
	}
	for _, p := range payments {
		require.NoError(t, repo.Save(ctx, p))
	}

	summary := env.handler.Scheduler.RunNow(ctx)

	assert.Equal(t, 0, summary.Booked)
	assert.Equal(t, 0, summary.Skipped)
	page, err := env.store.Transactions().List(ctx, generic.Query{From: 0, To: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total())
}

func TestScheduler_CatchesUpWithinLookback(t *testing.T) {
	// GIVEN: The server comes back three days after the 15th
	now := time.Date(2025, time.March, 18, 8, 0, 0, 0, time.UTC)
	env := newTestEnv(t, "household", now)

	// WHEN: The scheduler runs
	summary := env.handler.Scheduler.RunNow(context.Background())

	// THEN: The streaming subscription of the 15th is booked
	assert.Equal(t, 1, summary.Booked)

	executed, err := env.store.IsExecuted(context.Background(), "rp-streaming", generic.Date(2025, time.March, 15))
	require.NoError(t, err)
	assert.True(t, executed)

	// A shorter lookback would have missed it
	env2 := newTestEnv(t, "household", now)
	env2.handler.Scheduler.LookbackDays = 2
	assert.Equal(t, 0, env2.handler.Scheduler.RunNow(context.Background()).Booked)
}

func TestScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t, "household", aprilFirst)
	s := env.handler.Scheduler
	s.CheckInterval = time.Hour

	s.Start()
	s.Start() // no-op

	// The first pass runs immediately on start.
	require.Eventually(t, func() bool {
		ok, err := env.store.IsExecuted(context.Background(), "rp-rent", aprilFirst)
		return err == nil && ok
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop() // no-op
	assert.Equal(t, aprilFirst.Add(time.Hour), s.GetNextRunTime())
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	env := newTestEnv(t, "household", aprilFirst)
	s := NewRecurringPaymentScheduler(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Enabled = false

	s.Start()
	s.Stop()

	ok, err := env.store.IsExecuted(context.Background(), "rp-rent", aprilFirst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTriggerRecurringRunEndpoint(t *testing.T) {
	env := newTestEnv(t, "household", aprilFirst)

	rec := env.do(t, http.MethodPost, "/api/admin/recurring/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[wire.RunSummaryDTO](t, rec)
	assert.Equal(t, "2025-04-01", summary.Date)
	assert.Equal(t, 2, summary.Booked)

	rec = env.do(t, http.MethodGet, "/api/admin/recurring/executions?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	execs := decode[[]wire.ExecutionDTO](t, rec)
	require.Len(t, execs, 2)
	for _, e := range execs {
		assert.Equal(t, "completed", e.Status)
		assert.NotEmpty(t, e.TransactionID)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/recurring/executions?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func ptr[T any](v T) *T { return &v }
