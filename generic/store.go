/*
store.go - Persistence and fetch contracts

PURPOSE:
  Defines the interfaces between list state, HTTP handlers and storage.
  Different implementations can use SQLite, an HTTP backend, or memory.

KEY INTERFACES:
  Fetcher:    The injected collaborator an EntityList pulls pages from
  Repository: CRUD plus windowed listing for one entity type

PAGINATION CONTRACT:
  List/Fetch receive a half-open row window [From, To) and return at most
  To-From rows plus the total number of matching rows. Search is a
  case-insensitive substring match over the entity's text fields.

IMPLEMENTATIONS:
  - store/sqlite: one Repository per table
  - generic/store: in-memory Repository for tests/dev
  - client: Resource[T] fetches over the REST API

SEE ALSO:
  - list.go: Consumes Fetcher
  - api/handlers.go: Serves Repository.List over HTTP
*/
package generic

import "context"

// =============================================================================
// FETCHER - Source of pages for an EntityList
// =============================================================================

// Fetcher returns one page of T for a query. Exactly one of the returned
// page and error is meaningful.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q Query) (Page[T], error)
}

// FetchFunc adapts a plain function to Fetcher.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

func (f FetchFunc[T]) Fetch(ctx context.Context, q Query) (Page[T], error) {
	return f(ctx, q)
}

// =============================================================================
// REPOSITORY - CRUD for one entity type
// =============================================================================

// Repository persists one entity type.
type Repository[T Entity] interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Save inserts or replaces the record.
	Save(ctx context.Context, v T) error

	// Delete removes the record. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns the window of records matching q, newest first unless
	// q.OrderBy says otherwise.
	List(ctx context.Context, q Query) (Page[T], error)
}

// RepositoryFetcher exposes a Repository as a Fetcher so an EntityList can
// run directly against local storage.
func RepositoryFetcher[T Entity](r Repository[T]) Fetcher[T] {
	return FetchFunc[T](r.List)
}
