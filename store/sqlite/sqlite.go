/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Repository for every budgeting entity plus the
  execution log the recurring-payment scheduler uses. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.Repository[budget.Category]
  generic.Repository[budget.PaymentMethod]
  generic.Repository[budget.Transaction]
  generic.Repository[budget.Budget]
  generic.Repository[budget.RecurringPayment]

KEY TABLES:
  categories:             Category labels
  payment_methods:        Cards/accounts
  transactions:           Booked income and expenses
  budgets:                Spending limits per period
  recurring_payments:     Subscriptions
  recurring_executions:   One row per scheduler booking attempt

LIST QUERIES:
  Every List runs two statements with the same WHERE clause:
  COUNT(*) for the total, then LIMIT/OFFSET for the requested window.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  page, err := store.Transactions().List(ctx, generic.Query{From: 0, To: 10})

SEE ALSO:
  - generic/store.go: Interface definitions
  - table.go: Generic table mapping
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	categories        *table[budget.Category]
	paymentMethods    *table[budget.PaymentMethod]
	transactions      *table[budget.Transaction]
	budgets           *table[budget.Budget]
	recurringPayments *table[budget.RecurringPayment]
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store.categories = categoriesTable(store)
	store.paymentMethods = paymentMethodsTable(store)
	store.transactions = transactionsTable(store)
	store.budgets = budgetsTable(store)
	store.recurringPayments = recurringPaymentsTable(store)

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_methods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		receiver TEXT NOT NULL,
		information TEXT,
		amount_value TEXT NOT NULL,
		amount_currency TEXT NOT NULL,
		category_id TEXT NOT NULL,
		payment_method_id TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		recurring_payment_id TEXT,
		created_at TEXT NOT NULL
	);

	-- List screens order by processed_at (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_processed_at
		ON transactions(processed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_category
		ON transactions(category_id, processed_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_payment_method
		ON transactions(payment_method_id);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		description TEXT,
		amount_value TEXT NOT NULL,
		amount_currency TEXT NOT NULL,
		category_ids_json TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_payments (
		id TEXT PRIMARY KEY,
		receiver TEXT NOT NULL,
		information TEXT,
		amount_value TEXT NOT NULL,
		amount_currency TEXT NOT NULL,
		category_id TEXT NOT NULL,
		payment_method_id TEXT NOT NULL,
		execute_at INTEGER NOT NULL CHECK (execute_at BETWEEN 1 AND 31),
		paused BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Scheduler bookings. A payment is booked at most once per day.
	CREATE TABLE IF NOT EXISTS recurring_executions (
		id TEXT PRIMARY KEY,
		recurring_payment_id TEXT NOT NULL,
		execution_date TEXT NOT NULL,
		transaction_id TEXT,
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_recurring_execution
		ON recurring_executions(recurring_payment_id, execution_date)
		WHERE status = 'completed';
	CREATE INDEX IF NOT EXISTS idx_recurring_executions_created
		ON recurring_executions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPOSITORIES
// =============================================================================

func (s *Store) Categories() generic.Repository[budget.Category]         { return s.categories }
func (s *Store) PaymentMethods() generic.Repository[budget.PaymentMethod] { return s.paymentMethods }
func (s *Store) Transactions() generic.Repository[budget.Transaction]     { return s.transactions }
func (s *Store) Budgets() generic.Repository[budget.Budget]               { return s.budgets }
func (s *Store) RecurringPayments() generic.Repository[budget.RecurringPayment] {
	return s.recurringPayments
}

// TransactionsInPeriod returns all transactions processed within p, oldest first.
func (s *Store) TransactionsInPeriod(ctx context.Context, p generic.Period) ([]budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + strings.Join(s.transactions.columns, ", ") + ` FROM transactions
		WHERE processed_at >= ? AND processed_at <= ?
		ORDER BY processed_at ASC, id ASC`
	return s.transactions.query(ctx, s.db, query,
		formatTime(generic.DateOf(p.Start)),
		formatTime(generic.DateOf(p.End).Add(24*time.Hour-time.Second)),
	)
}

// ActiveRecurringPayments returns all payments that are not paused.
func (s *Store) ActiveRecurringPayments(ctx context.Context) ([]budget.RecurringPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + strings.Join(s.recurringPayments.columns, ", ") +
		` FROM recurring_payments WHERE paused = FALSE ORDER BY execute_at ASC, id ASC`
	return s.recurringPayments.query(ctx, s.db, query)
}

// Reset deletes all data (dev/demo only).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"recurring_executions", "recurring_payments", "budgets",
		"transactions", "payment_methods", "categories",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to reset %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// RECURRING EXECUTIONS
// =============================================================================

// Execution status values.
const (
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// Execution records one scheduler attempt to book a recurring payment.
type Execution struct {
	ID                 string
	RecurringPaymentID string
	ExecutionDate      time.Time
	TransactionID      string
	Status             string
	Error              string
	CreatedAt          time.Time
}

// BookExecution atomically inserts the booked transaction and a completed
// execution row. Returns generic.ErrDuplicateExecution when the payment was
// already booked for that day.
func (s *Store) BookExecution(ctx context.Context, tx budget.Transaction, exec Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	exec.Status = ExecutionCompleted
	exec.TransactionID = tx.ID
	if err := insertExecution(ctx, sqlTx, exec); err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateExecution
		}
		return err
	}
	if err := s.transactions.upsert(ctx, sqlTx, tx); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// RecordFailedExecution logs a failed attempt.
func (s *Store) RecordFailedExecution(ctx context.Context, exec Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec.Status = ExecutionFailed
	return insertExecution(ctx, s.db, exec)
}

// IsExecuted checks whether a payment was already booked on date.
func (s *Store) IsExecuted(ctx context.Context, paymentID string, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM recurring_executions
		WHERE recurring_payment_id = ? AND execution_date = ? AND status = ?`,
		paymentID, generic.DateOf(date).Format(generic.DateLayout), ExecutionCompleted,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListExecutions returns the most recent executions, newest first.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recurring_payment_id, execution_date, transaction_id, status, error, created_at
		FROM recurring_executions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var (
			e               Execution
			date, created   string
			txID, errorText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RecurringPaymentID, &date, &txID, &e.Status, &errorText, &created); err != nil {
			return nil, err
		}
		e.ExecutionDate, _ = generic.ParseDate(date)
		e.CreatedAt = parseTime(created)
		e.TransactionID = txID.String
		e.Error = errorText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func insertExecution(ctx context.Context, db execer, e Execution) error {
	if e.ID == "" {
		e.ID = generic.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurring_executions
		(id, recurring_payment_id, execution_date, transaction_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.RecurringPaymentID,
		generic.DateOf(e.ExecutionDate).Format(generic.DateLayout),
		nullString(e.TransactionID),
		e.Status,
		nullString(e.Error),
		formatTime(e.CreatedAt),
	)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
