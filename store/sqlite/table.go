package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// TABLE - generic.Repository over one SQL table
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

// table maps one entity type onto one table. columns[0] must be "id".
type table[T generic.Entity] struct {
	s       *Store
	name    string
	columns []string
	// search lists the text columns a keyword is matched against.
	search []string
	// orderBy maps the public order_by keys onto columns.
	orderBy      map[string]string
	defaultOrder string
	values       func(T) ([]any, error)
	scan         func(scanner) (T, error)
	filters      func(generic.Extra) ([]string, []any)
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(t.columns, ", "), t.name)
	v, err := t.scan(t.s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, generic.ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s %s: %w", t.name, id, err)
	}
	return v, nil
}

func (t *table[T]) Save(ctx context.Context, v T) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.upsert(ctx, t.s.db, v)
}

func (t *table[T]) upsert(ctx context.Context, db execer, v T) error {
	vals, err := t.values(v)
	if err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	updates := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns[1:] {
		updates = append(updates, c+" = excluded."+c)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		t.name, strings.Join(t.columns, ", "), placeholders, strings.Join(updates, ", "),
	)
	if _, err := db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("failed to save %s: %w", t.name, err)
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	res, err := t.s.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

// List returns the requested window plus the total number of matches.
func (t *table[T]) List(ctx context.Context, q generic.Query) (generic.Page[T], error) {
	if err := q.Validate(); err != nil {
		return generic.Page[T]{}, err
	}
	order, err := t.order(q.Extra)
	if err != nil {
		return generic.Page[T]{}, err
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	where, args := t.where(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM " + t.name + where
	if err := t.s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return generic.Page[T]{}, fmt.Errorf("failed to count %s: %w", t.name, err)
	}

	selectQuery := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(t.columns, ", "), t.name, where, order)
	rows, err := t.query(ctx, t.s.db, selectQuery, append(args, q.Limit(), q.From)...)
	if err != nil {
		return generic.Page[T]{}, err
	}
	return generic.NewPage(rows, total), nil
}

func (t *table[T]) where(q generic.Query) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if kw := strings.TrimSpace(q.Search); kw != "" && len(t.search) > 0 {
		pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
		ors := make([]string, len(t.search))
		for i, c := range t.search {
			ors[i] = "LOWER(COALESCE(" + c + ", '')) LIKE ? ESCAPE '\\'"
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	if t.filters != nil {
		fc, fa := t.filters(q.Extra)
		clauses = append(clauses, fc...)
		args = append(args, fa...)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (t *table[T]) order(e generic.Extra) (string, error) {
	if e.OrderBy == "" {
		return t.defaultOrder + " DESC, id DESC", nil
	}
	col, ok := t.orderBy[e.OrderBy]
	if !ok {
		return "", generic.Invalid("order_by", fmt.Sprintf("unsupported value %q", e.OrderBy))
	}
	dir := "ASC"
	if e.Descending {
		dir = "DESC"
	}
	return col + " " + dir + ", id " + dir, nil
}

func (t *table[T]) query(ctx context.Context, db queryer, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// endOfDay makes a date filter inclusive of the whole day.
func endOfDay(t time.Time) time.Time {
	return generic.DateOf(t).Add(24*time.Hour - time.Second)
}

func parseAmount(value, currency string) generic.Amount {
	return generic.Amount{
		Value:    generic.MustParseDecimal(value),
		Currency: generic.Currency(currency),
	}
}

// =============================================================================
// ENTITY MAPPINGS
// =============================================================================

func categoriesTable(s *Store) *table[budget.Category] {
	return &table[budget.Category]{
		s:            s,
		name:         "categories",
		columns:      []string{"id", "name", "description", "created_at"},
		search:       []string{"name", "description"},
		orderBy:      map[string]string{"name": "name", "created_at": "created_at"},
		defaultOrder: "created_at",
		values: func(c budget.Category) ([]any, error) {
			return []any{c.ID, c.Name, c.Description, formatTime(c.CreatedAt)}, nil
		},
		scan: func(sc scanner) (budget.Category, error) {
			var (
				c           budget.Category
				description sql.NullString
				created     string
			)
			if err := sc.Scan(&c.ID, &c.Name, &description, &created); err != nil {
				return c, err
			}
			c.Description = description.String
			c.CreatedAt = parseTime(created)
			return c, nil
		},
	}
}

func paymentMethodsTable(s *Store) *table[budget.PaymentMethod] {
	return &table[budget.PaymentMethod]{
		s:            s,
		name:         "payment_methods",
		columns:      []string{"id", "name", "provider", "description", "created_at"},
		search:       []string{"name", "provider", "description"},
		orderBy:      map[string]string{"name": "name", "provider": "provider", "created_at": "created_at"},
		defaultOrder: "created_at",
		values: func(p budget.PaymentMethod) ([]any, error) {
			return []any{p.ID, p.Name, p.Provider, p.Description, formatTime(p.CreatedAt)}, nil
		},
		scan: func(sc scanner) (budget.PaymentMethod, error) {
			var (
				p           budget.PaymentMethod
				description sql.NullString
				created     string
			)
			if err := sc.Scan(&p.ID, &p.Name, &p.Provider, &description, &created); err != nil {
				return p, err
			}
			p.Description = description.String
			p.CreatedAt = parseTime(created)
			return p, nil
		},
	}
}

func transactionsTable(s *Store) *table[budget.Transaction] {
	return &table[budget.Transaction]{
		s:    s,
		name: "transactions",
		columns: []string{
			"id", "receiver", "information", "amount_value", "amount_currency",
			"category_id", "payment_method_id", "processed_at", "recurring_payment_id", "created_at",
		},
		search: []string{"receiver", "information"},
		orderBy: map[string]string{
			"processed_at": "processed_at",
			"receiver":     "receiver",
			"amount":       "CAST(amount_value AS REAL)",
			"created_at":   "created_at",
		},
		defaultOrder: "processed_at",
		values: func(t budget.Transaction) ([]any, error) {
			return []any{
				t.ID, t.Receiver, t.Information, t.Amount.Value.String(), string(t.Amount.Currency),
				t.CategoryID, t.PaymentMethodID, formatTime(t.ProcessedAt),
				nullString(t.RecurringPaymentID), formatTime(t.CreatedAt),
			}, nil
		},
		scan: func(sc scanner) (budget.Transaction, error) {
			var (
				t                        budget.Transaction
				information, recurringID sql.NullString
				value, currency          string
				processed, created       string
			)
			err := sc.Scan(&t.ID, &t.Receiver, &information, &value, &currency,
				&t.CategoryID, &t.PaymentMethodID, &processed, &recurringID, &created)
			if err != nil {
				return t, err
			}
			t.Information = information.String
			t.Amount = parseAmount(value, currency)
			t.ProcessedAt = parseTime(processed)
			t.RecurringPaymentID = recurringID.String
			t.CreatedAt = parseTime(created)
			return t, nil
		},
		filters: func(e generic.Extra) ([]string, []any) {
			var (
				clauses []string
				args    []any
			)
			if e.CategoryID != nil {
				clauses = append(clauses, "category_id = ?")
				args = append(args, *e.CategoryID)
			}
			if e.PaymentMethodID != nil {
				clauses = append(clauses, "payment_method_id = ?")
				args = append(args, *e.PaymentMethodID)
			}
			if e.ProcessedFrom != nil {
				clauses = append(clauses, "processed_at >= ?")
				args = append(args, formatTime(generic.DateOf(*e.ProcessedFrom)))
			}
			if e.ProcessedTo != nil {
				clauses = append(clauses, "processed_at <= ?")
				args = append(args, formatTime(endOfDay(*e.ProcessedTo)))
			}
			return clauses, args
		},
	}
}

func budgetsTable(s *Store) *table[budget.Budget] {
	return &table[budget.Budget]{
		s:    s,
		name: "budgets",
		columns: []string{
			"id", "label", "description", "amount_value", "amount_currency",
			"category_ids_json", "period_start", "period_end", "created_at",
		},
		search:       []string{"label", "description"},
		orderBy:      map[string]string{"label": "label", "period_start": "period_start", "created_at": "created_at"},
		defaultOrder: "created_at",
		values: func(b budget.Budget) ([]any, error) {
			ids, err := json.Marshal(b.CategoryIDs)
			if err != nil {
				return nil, err
			}
			return []any{
				b.ID, b.Label, b.Description, b.Amount.Value.String(), string(b.Amount.Currency),
				string(ids), b.Period.Start.Format(generic.DateLayout), b.Period.End.Format(generic.DateLayout),
				formatTime(b.CreatedAt),
			}, nil
		},
		scan: func(sc scanner) (budget.Budget, error) {
			var (
				b                    budget.Budget
				description          sql.NullString
				value, currency, ids string
				start, end, created  string
			)
			err := sc.Scan(&b.ID, &b.Label, &description, &value, &currency, &ids, &start, &end, &created)
			if err != nil {
				return b, err
			}
			if err := json.Unmarshal([]byte(ids), &b.CategoryIDs); err != nil {
				return b, fmt.Errorf("invalid category ids: %w", err)
			}
			b.Description = description.String
			b.Amount = parseAmount(value, currency)
			b.Period.Start, _ = generic.ParseDate(start)
			b.Period.End, _ = generic.ParseDate(end)
			b.CreatedAt = parseTime(created)
			return b, nil
		},
	}
}

func recurringPaymentsTable(s *Store) *table[budget.RecurringPayment] {
	return &table[budget.RecurringPayment]{
		s:    s,
		name: "recurring_payments",
		columns: []string{
			"id", "receiver", "information", "amount_value", "amount_currency",
			"category_id", "payment_method_id", "execute_at", "paused", "created_at",
		},
		search: []string{"receiver", "information"},
		orderBy: map[string]string{
			"execute_at": "execute_at",
			"receiver":   "receiver",
			"created_at": "created_at",
		},
		defaultOrder: "created_at",
		values: func(r budget.RecurringPayment) ([]any, error) {
			return []any{
				r.ID, r.Receiver, r.Information, r.Amount.Value.String(), string(r.Amount.Currency),
				r.CategoryID, r.PaymentMethodID, r.ExecuteAt, r.Paused, formatTime(r.CreatedAt),
			}, nil
		},
		scan: func(sc scanner) (budget.RecurringPayment, error) {
			var (
				r               budget.RecurringPayment
				information     sql.NullString
				value, currency string
				created         string
			)
			err := sc.Scan(&r.ID, &r.Receiver, &information, &value, &currency,
				&r.CategoryID, &r.PaymentMethodID, &r.ExecuteAt, &r.Paused, &created)
			if err != nil {
				return r, err
			}
			r.Information = information.String
			r.Amount = parseAmount(value, currency)
			r.CreatedAt = parseTime(created)
			return r, nil
		},
		filters: func(e generic.Extra) ([]string, []any) {
			var (
				clauses []string
				args    []any
			)
			if e.CategoryID != nil {
				clauses = append(clauses, "category_id = ?")
				args = append(args, *e.CategoryID)
			}
			if e.PaymentMethodID != nil {
				clauses = append(clauses, "payment_method_id = ?")
				args = append(args, *e.PaymentMethodID)
			}
			return clauses, args
		},
	}
}
