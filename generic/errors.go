/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages and the API layer wrap these errors with additional context.

ERROR CATEGORIES:
  1. Query errors - Malformed windows or page sizes
  2. Store errors - Missing or duplicate records
  3. List errors - Failed or superseded fetches

USAGE:
  Callers test with errors.Is / errors.As:

    if errors.Is(err, generic.ErrNotFound) {
        writeError(w, http.StatusNotFound, "Category not found", err)
    }

SEE ALSO:
  - list.go: Records FetchError on failed operations
  - store.go: Uses ErrNotFound
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a record with the requested ID doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidWindow is returned when a query window has from < 0 or to < from.
	ErrInvalidWindow = errors.New("invalid query window")

	// ErrInvalidRowsPerPage is returned when a page size is not positive.
	ErrInvalidRowsPerPage = errors.New("rows per page must be positive")

	// ErrInvalidExecutionDay is returned for a day-of-month outside 1..31.
	ErrInvalidExecutionDay = errors.New("execution day must be between 1 and 31")

	// ErrDuplicateExecution is returned when a recurring payment was already
	// booked for the same day.
	ErrDuplicateExecution = errors.New("recurring payment already executed")

	// ErrStaleResponse marks a fetch result that arrived after a newer
	// operation on the same list had started. It is never stored on the list.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrValidation is returned when a record fails field validation.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FetchError records which list operation failed and with which query.
// Its message is the fetch error's own message.
type FetchError struct {
	Op    string
	Query Query
	Err   error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidRowsPerPage) ||
		errors.Is(err, ErrInvalidExecutionDay) ||
		errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
