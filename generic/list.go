/*
list.go - Paginated entity list state machine

PURPOSE:
  Every list screen (transactions, budgets, categories, payment methods,
  recurring payments) shows one page of an entity type, a total count for
  the pager, a keyword filter and a loading/error indicator. EntityList is
  that state plus the three operations that change it.

STATE:
  data         Current page, replaced wholesale on success (never merged)
  count        Total matching rows server-side
  filter       Keyword constraint; only ApplyFilters changes it
  currentPage  Page index (page units, not offsets)
  rowsPerPage  Page size
  status       idle | loading | failed
  err          Set only while failed

STATE MACHINE:
  idle --(start op)--> loading --(success)--> idle
                               --(failure)--> failed --(start op)--> loading

FAILURE POLICY:
  All-or-nothing. A failed operation commits nothing: data, count, page,
  rows and filter keep their previous values and only status/err change.
  Stale data stays readable while loading or failed.

ORDERING:
  Each operation takes a generation number when it starts. Only the result
  of the most recently started operation is applied; results of superseded
  operations are discarded (last-issued wins). The mutex is never held
  across the fetch.

USAGE:
  list := generic.NewEntityList[budget.Transaction](fetcher, generic.WithRowsPerPage(10))
  err := list.GetPage(ctx, 2, 10, nil)
  rows := list.Data()

SEE ALSO:
  - query.go: Query window computation
  - store.go: Fetcher contract
  - client/store.go: Owns one EntityList per entity type
*/
package generic

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// DefaultRowsPerPage is the page size of a fresh list.
const DefaultRowsPerPage = 8

// =============================================================================
// STATE TYPES
// =============================================================================

// Status is the tri-state loading indicator.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusFailed  Status = "failed"
)

// Filter is the search constraint of a list. A nil Keyword means unset.
type Filter struct {
	Keyword *string
}

// Merge overlays the set fields of partial on f.
func (f Filter) Merge(partial Filter) Filter {
	if partial.Keyword != nil {
		kw := *partial.Keyword
		f.Keyword = &kw
	}
	return f
}

// Search returns the trimmed keyword, or "" when unset.
func (f Filter) Search() string {
	if f.Keyword == nil {
		return ""
	}
	return strings.TrimSpace(*f.Keyword)
}

func (f Filter) clone() Filter {
	if f.Keyword == nil {
		return Filter{}
	}
	kw := *f.Keyword
	return Filter{Keyword: &kw}
}

// Keyword is a convenience for building a Filter.
func Keyword(s string) Filter {
	return Filter{Keyword: &s}
}

// StatusInfo pairs the status with the error of a failed operation.
type StatusInfo struct {
	Status Status
	Err    error
}

// Pagination is the page cursor of a list.
type Pagination struct {
	CurrentPage int
	RowsPerPage int
}

// State is a point-in-time copy of a list.
type State[T any] struct {
	Data        []T
	Count       int
	Filter      Filter
	CurrentPage int
	RowsPerPage int
	Status      Status
	Err         error
}

// =============================================================================
// OPTIONS
// =============================================================================

type listConfig struct {
	rowsPerPage int
	extra       Extra
	logger      *slog.Logger
	name        string
}

// ListOption configures an EntityList.
type ListOption func(*listConfig)

// WithRowsPerPage sets the initial page size. Non-positive values are ignored.
func WithRowsPerPage(n int) ListOption {
	return func(c *listConfig) {
		if n > 0 {
			c.rowsPerPage = n
		}
	}
}

// WithExtra sets filters applied to every query of the list.
func WithExtra(e Extra) ListOption {
	return func(c *listConfig) { c.extra = e }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ListOption {
	return func(c *listConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithName labels log lines of the list (e.g. "transactions").
func WithName(name string) ListOption {
	return func(c *listConfig) { c.name = name }
}

// =============================================================================
// ENTITY LIST
// =============================================================================

// EntityList is the paginated list state for one entity type.
// It is safe for concurrent use.
type EntityList[T any] struct {
	fetcher Fetcher[T]
	cfg     listConfig
	log     *slog.Logger

	mu          sync.Mutex
	data        []T
	count       int
	filter      Filter
	currentPage int
	rowsPerPage int
	status      Status
	err         error
	generation  uint64
}

// NewEntityList creates a list in its initial state:
// no data, count 0, page 0, idle.
func NewEntityList[T any](fetcher Fetcher[T], opts ...ListOption) *EntityList[T] {
	cfg := listConfig{rowsPerPage: DefaultRowsPerPage, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &EntityList[T]{fetcher: fetcher, cfg: cfg}
	l.log = cfg.logger.With("component", "entity_list")
	if cfg.name != "" {
		l.log = l.log.With("entity", cfg.name)
	}
	l.reset()
	return l
}

func (l *EntityList[T]) reset() {
	l.data = []T{}
	l.count = 0
	l.filter = Filter{}
	l.currentPage = 0
	l.rowsPerPage = l.cfg.rowsPerPage
	l.status = StatusIdle
	l.err = nil
}

// Clear re-initializes the list. Results of operations still in flight are
// discarded when they arrive.
func (l *EntityList[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.reset()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Refresh refetches the current page with the current filter. It never
// changes the filter or the pagination.
func (l *EntityList[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	page, rows := l.currentPage, l.rowsPerPage
	q := l.queryLocked(page, rows, l.filter, Extra{})
	gen := l.startLocked()
	l.mu.Unlock()

	result, err := l.fetcher.Fetch(ctx, q)

	return l.finish("refresh", gen, q, result, err, func() {
		l.commitPageLocked(result)
	})
}

// GetPage fetches page (clamped to >= 0) with the given page size, merging
// extra into the query. Pagination is committed only on success. A page whose
// row offset does not fit in an int fails with ErrInvalidWindow unfetched.
func (l *EntityList[T]) GetPage(ctx context.Context, page, rowsPerPage int, extra *Extra) error {
	if page < 0 {
		l.log.Warn("negative page requested, using page 0", "page", page)
		page = 0
	}

	var ex Extra
	if extra != nil {
		ex = *extra
	}

	l.mu.Lock()
	q := l.queryLocked(page, rowsPerPage, l.filter, ex)
	gen := l.startLocked()
	l.mu.Unlock()

	if rowsPerPage <= 0 {
		return l.finish("getPage", gen, q, Page[T]{}, ErrInvalidRowsPerPage, nil)
	}
	if page > math.MaxInt/rowsPerPage-1 {
		return l.finish("getPage", gen, q, Page[T]{}, ErrInvalidWindow, nil)
	}

	result, err := l.fetcher.Fetch(ctx, q)

	return l.finish("getPage", gen, q, result, err, func() {
		l.currentPage = page
		l.rowsPerPage = rowsPerPage
		l.commitPageLocked(result)
	})
}

// ApplyFilters merges partial into the filter and fetches the first page.
// The merged filter is committed, and the page reset to 0, only on success.
func (l *EntityList[T]) ApplyFilters(ctx context.Context, partial Filter) error {
	l.mu.Lock()
	merged := l.filter.clone().Merge(partial)
	q := l.queryLocked(0, l.rowsPerPage, merged, Extra{})
	gen := l.startLocked()
	l.mu.Unlock()

	result, err := l.fetcher.Fetch(ctx, q)

	return l.finish("applyFilters", gen, q, result, err, func() {
		l.filter = merged
		l.currentPage = 0
		l.commitPageLocked(result)
	})
}

// queryLocked builds the query for a page. Caller holds mu.
func (l *EntityList[T]) queryLocked(page, rowsPerPage int, f Filter, extra Extra) Query {
	from, to := WindowFor(page, rowsPerPage)
	return Query{
		From:   from,
		To:     to,
		Search: f.Search(),
		Extra:  l.cfg.extra.Merge(extra),
	}
}

// startLocked moves the list to loading and returns the new generation.
func (l *EntityList[T]) startLocked() uint64 {
	l.generation++
	l.status = StatusLoading
	l.err = nil
	return l.generation
}

// finish applies the outcome of the operation started at gen. commit runs
// under mu and only on success of the newest operation.
func (l *EntityList[T]) finish(op string, gen uint64, q Query, result Page[T], err error, commit func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		l.log.Debug("discarding superseded response", "op", op, "generation", gen, "current", l.generation)
		return ErrStaleResponse
	}

	if err != nil {
		ferr := &FetchError{Op: op, Query: q, Err: err}
		l.status = StatusFailed
		l.err = ferr
		if !errors.Is(err, context.Canceled) {
			l.log.Warn("list operation failed", "op", op, "from", q.From, "to", q.To, "error", err)
		}
		return ferr
	}

	commit()
	l.status = StatusIdle
	l.err = nil
	return nil
}

// commitPageLocked replaces data and count with the fetched page.
func (l *EntityList[T]) commitPageLocked(p Page[T]) {
	data := p.Data
	if len(data) > l.rowsPerPage {
		l.log.Warn("backend returned more rows than requested, truncating",
			"rows", len(data), "rows_per_page", l.rowsPerPage)
		data = data[:l.rowsPerPage]
	}
	l.data = make([]T, len(data))
	copy(l.data, data)
	l.count = p.Total()
}

// =============================================================================
// SELECTORS - Pure projections; all return copies
// =============================================================================

// Data returns the rows of the current page.
func (l *EntityList[T]) Data() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.data))
	copy(out, l.data)
	return out
}

// TotalEntityCount returns the server-side number of matching rows.
func (l *EntityList[T]) TotalEntityCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Status returns the status and, when failed, the error.
func (l *EntityList[T]) Status() StatusInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return StatusInfo{Status: l.status, Err: l.err}
}

// Pagination returns the page cursor.
func (l *EntityList[T]) Pagination() Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Pagination{CurrentPage: l.currentPage, RowsPerPage: l.rowsPerPage}
}

// Filter returns the committed filter.
func (l *EntityList[T]) Filter() Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter.clone()
}

// Snapshot returns the whole state at once.
func (l *EntityList[T]) Snapshot() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	data := make([]T, len(l.data))
	copy(data, l.data)
	return State[T]{
		Data:        data,
		Count:       l.count,
		Filter:      l.filter.clone(),
		CurrentPage: l.currentPage,
		RowsPerPage: l.rowsPerPage,
		Status:      l.status,
		Err:         l.err,
	}
}
