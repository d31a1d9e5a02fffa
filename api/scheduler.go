/*
scheduler.go - Automated recurring payment booking

PURPOSE:
  Periodically books a transaction for every recurring payment that is due,
  so subscriptions show up in the transaction list without user action.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks today and the previous LookbackDays days, so a server that was
    down over an execution day catches up on restart
  - Skips days before the payment was created
  - Skips payments that are already booked for that day
  - Records every attempt in recurring_executions for audit and UI display

IDEMPOTENCY:
  The execution log has a unique index on (payment, day) for completed rows.
  Two overlapping runs can both decide a payment is due; only one booking
  commits, the other gets generic.ErrDuplicateExecution and counts as skipped.

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)
  - LookbackDays: Catch-up window (default: 3)

USAGE:
  scheduler := NewRecurringPaymentScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRecurringRun endpoint (manual run)
  - budget/recurring.go: DueOn, ToTransaction
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/store/sqlite"
)

// RunSummary reports the outcome of one scheduler pass.
type RunSummary struct {
	Date    time.Time
	Booked  int
	Skipped int
	Failed  int
}

// RecurringPaymentScheduler books due recurring payments.
type RecurringPaymentScheduler struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool
	LookbackDays  int

	log *slog.Logger

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex // guards ticker, stop, running and now
	running bool
	now     func() time.Time
}

// NewRecurringPaymentScheduler creates a new scheduler.
func NewRecurringPaymentScheduler(store *sqlite.Store, logger *slog.Logger) *RecurringPaymentScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringPaymentScheduler{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		LookbackDays:  3,
		log:           logger.With("component", "scheduler"),
		now:           time.Now,
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (rs *RecurringPaymentScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info("scheduler disabled, not starting")
		return
	}
	if rs.running {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.running = true
	rs.wg.Add(1)

	go rs.run()

	rs.log.Info("scheduler started", "interval", rs.CheckInterval, "lookback_days", rs.LookbackDays)
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (rs *RecurringPaymentScheduler) Stop() {
	rs.mu.Lock()
	if !rs.running {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.running = false
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.log.Info("scheduler stopped")
}

func (rs *RecurringPaymentScheduler) run() {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-rs.stop
		cancel()
	}()

	// Run immediately on start
	rs.checkAndProcess(ctx)

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess(ctx)
		case <-rs.stop:
			return
		}
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (rs *RecurringPaymentScheduler) RunNow(ctx context.Context) RunSummary {
	return rs.checkAndProcess(ctx)
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *RecurringPaymentScheduler) GetNextRunTime() time.Time {
	return rs.clock().Add(rs.CheckInterval)
}

func (rs *RecurringPaymentScheduler) clock() time.Time {
	rs.mu.Lock()
	now := rs.now
	rs.mu.Unlock()
	return now()
}

func (rs *RecurringPaymentScheduler) setClock(now func() time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.now = now
}

func (rs *RecurringPaymentScheduler) checkAndProcess(ctx context.Context) RunSummary {
	now := rs.clock()
	today := generic.DateOf(now)
	summary := RunSummary{Date: today}

	payments, err := rs.Store.ActiveRecurringPayments(ctx)
	if err != nil {
		rs.log.Error("failed to list recurring payments", "error", err)
		return summary
	}

	for _, p := range payments {
		for back := rs.LookbackDays; back >= 0; back-- {
			if ctx.Err() != nil {
				return summary
			}

			day := today.AddDate(0, 0, -back)
			if !p.DueOn(day) || day.Before(generic.DateOf(p.CreatedAt)) {
				continue
			}

			done, err := rs.Store.IsExecuted(ctx, p.ID, day)
			if err != nil {
				rs.log.Error("failed to check execution status", "payment_id", p.ID, "error", err)
				summary.Failed++
				continue
			}
			if done {
				summary.Skipped++
				continue
			}

			switch err := rs.book(ctx, p, day, now); {
			case err == nil:
				summary.Booked++
			case errors.Is(err, generic.ErrDuplicateExecution):
				summary.Skipped++
			default:
				summary.Failed++
			}
		}
	}

	if summary.Booked > 0 || summary.Failed > 0 {
		rs.log.Info("recurring run completed",
			"date", today.Format(generic.DateLayout),
			"booked", summary.Booked,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	}
	return summary
}

func (rs *RecurringPaymentScheduler) book(ctx context.Context, p budget.RecurringPayment, day, now time.Time) error {
	tx := p.ToTransaction(day, now)
	exec := sqlite.Execution{
		ID:                 generic.NewID(),
		RecurringPaymentID: p.ID,
		ExecutionDate:      day,
		CreatedAt:          now.UTC(),
	}

	err := rs.Store.BookExecution(ctx, tx, exec)
	switch {
	case err == nil:
		rs.log.Info("booked recurring payment",
			"payment_id", p.ID,
			"receiver", p.Receiver,
			"amount", p.Amount.String(),
			"date", day.Format(generic.DateLayout),
		)
		return nil
	case errors.Is(err, generic.ErrDuplicateExecution):
		rs.log.Debug("recurring payment already booked", "payment_id", p.ID, "date", day.Format(generic.DateLayout))
		return err
	}

	rs.log.Error("failed to book recurring payment", "payment_id", p.ID, "error", err)
	exec.ID = generic.NewID()
	exec.Error = err.Error()
	if recErr := rs.Store.RecordFailedExecution(ctx, exec); recErr != nil {
		rs.log.Error("failed to record failed execution", "payment_id", p.ID, "error", recErr)
	}
	return err
}
