package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// QUERY - Row window plus typed filters sent to a Fetcher or Repository
// =============================================================================

// Query asks for rows [From, To) of the result set that matches Search and
// the Extra filters.
type Query struct {
	From   int
	To     int
	Search string
	Extra
}

// Extra holds the entity-specific filters a list screen may add on top of
// the keyword search. Nil / empty fields are not applied.
type Extra struct {
	CategoryID      *string
	PaymentMethodID *string
	ProcessedFrom   *time.Time
	ProcessedTo     *time.Time
	OrderBy         string
	Descending      bool
}

// Limit returns the page size requested by the window.
func (q Query) Limit() int { return q.To - q.From }

// Validate checks the window is well-formed.
func (q Query) Validate() error {
	if q.From < 0 || q.To < q.From {
		return fmt.Errorf("%w: from=%d to=%d", ErrInvalidWindow, q.From, q.To)
	}
	return nil
}

// Merge overlays the set fields of other on e and returns the result.
func (e Extra) Merge(other Extra) Extra {
	if other.CategoryID != nil {
		e.CategoryID = other.CategoryID
	}
	if other.PaymentMethodID != nil {
		e.PaymentMethodID = other.PaymentMethodID
	}
	if other.ProcessedFrom != nil {
		e.ProcessedFrom = other.ProcessedFrom
	}
	if other.ProcessedTo != nil {
		e.ProcessedTo = other.ProcessedTo
	}
	if other.OrderBy != "" {
		e.OrderBy = other.OrderBy
		e.Descending = other.Descending
	}
	return e
}

// WindowFor computes the query window for a page in page units.
func WindowFor(page, rowsPerPage int) (from, to int) {
	from = page * rowsPerPage
	return from, from + rowsPerPage
}

// =============================================================================
// PAGE - One window of results plus the total
// =============================================================================

// Page is a single window of results. TotalCount is the number of rows that
// match the query server-side; nil means the backend did not report it.
type Page[T any] struct {
	Data       []T
	TotalCount *int
}

// Total returns TotalCount, falling back to len(Data).
func (p Page[T]) Total() int {
	if p.TotalCount != nil {
		return *p.TotalCount
	}
	return len(p.Data)
}

// NewPage builds a page with a known total.
func NewPage[T any](data []T, total int) Page[T] {
	return Page[T]{Data: data, TotalCount: &total}
}

// Window slices an ordered result set by q's window.
func Window[T any](all []T, q Query) []T {
	from, to := q.From, q.To
	if from > len(all) {
		from = len(all)
	}
	if to > len(all) {
		to = len(all)
	}
	out := make([]T, to-from)
	copy(out, all[from:to])
	return out
}
