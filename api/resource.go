package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
)

// =============================================================================
// RESOURCE - CRUD + list endpoints for one entity type
// =============================================================================

// Query string defaults for list endpoints.
const (
	defaultWindow = 25
	maxWindow     = 500
)

type validatable interface {
	generic.Entity
	Validate() error
}

// resource serves /api/<plural> for entity T with wire type D.
type resource[T validatable, D any] struct {
	name    string
	repo    generic.Repository[T]
	toDTO   func(T) D
	fromDTO func(D) (T, error)
	// stamp sets the server-owned fields on a decoded record.
	stamp     func(v T, id string, createdAt time.Time) T
	createdAt func(T) time.Time
	now       func() time.Time
}

func (res resource[T, D]) routes(r chi.Router) {
	r.Get("/", res.list)
	r.Post("/", res.create)
	r.Get("/{id}", res.get)
	r.Put("/{id}", res.update)
	r.Delete("/{id}", res.delete)
}

func (res resource[T, D]) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid list query", err)
		return
	}

	page, err := res.repo.List(r.Context(), q)
	if err != nil {
		writeStoreError(w, "Failed to list "+res.name+"s", err)
		return
	}

	dtos := make([]D, len(page.Data))
	for i, v := range page.Data {
		dtos[i] = res.toDTO(v)
	}
	writeJSON(w, http.StatusOK, wire.ListResponse[D]{Data: dtos, TotalCount: page.Total()})
}

func (res resource[T, D]) get(w http.ResponseWriter, r *http.Request) {
	v, err := res.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Failed to get "+res.name, err)
		return
	}
	writeJSON(w, http.StatusOK, res.toDTO(v))
}

func (res resource[T, D]) create(w http.ResponseWriter, r *http.Request) {
	v, ok := res.decode(w, r)
	if !ok {
		return
	}
	v = res.stamp(v, generic.NewID(), res.now().UTC())

	if err := v.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+res.name, err)
		return
	}
	if err := res.repo.Save(r.Context(), v); err != nil {
		writeStoreError(w, "Failed to create "+res.name, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.toDTO(v))
}

func (res resource[T, D]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := res.repo.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get "+res.name, err)
		return
	}

	v, ok := res.decode(w, r)
	if !ok {
		return
	}
	v = res.stamp(v, id, res.createdAt(existing))

	if err := v.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+res.name, err)
		return
	}
	if err := res.repo.Save(r.Context(), v); err != nil {
		writeStoreError(w, "Failed to update "+res.name, err)
		return
	}
	writeJSON(w, http.StatusOK, res.toDTO(v))
}

func (res resource[T, D]) delete(w http.ResponseWriter, r *http.Request) {
	if err := res.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "Failed to delete "+res.name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (res resource[T, D]) decode(w http.ResponseWriter, r *http.Request) (T, bool) {
	var (
		dto  D
		zero T
	)
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return zero, false
	}
	v, err := res.fromDTO(dto)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+res.name, err)
		return zero, false
	}
	return v, true
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// parseListQuery reads from, to, search and the typed filters.
// A missing "to" means a window of defaultWindow rows.
func parseListQuery(r *http.Request) (generic.Query, error) {
	values := r.URL.Query()
	q := generic.Query{Search: strings.TrimSpace(values.Get("search"))}

	var err error
	if q.From, err = intParam(values.Get("from"), 0); err != nil {
		return q, generic.Invalid("from", "must be an integer")
	}
	if q.To, err = intParam(values.Get("to"), q.From+defaultWindow); err != nil {
		return q, generic.Invalid("to", "must be an integer")
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	if q.Limit() > maxWindow {
		return q, generic.Invalid("to", "window larger than "+strconv.Itoa(maxWindow)+" rows")
	}

	if v := values.Get("category"); v != "" {
		q.CategoryID = &v
	}
	if v := values.Get("payment_method"); v != "" {
		q.PaymentMethodID = &v
	}
	if v := values.Get("processed_from"); v != "" {
		t, err := wire.ParseDay("processed_from", v)
		if err != nil {
			return q, err
		}
		q.ProcessedFrom = &t
	}
	if v := values.Get("processed_to"); v != "" {
		t, err := wire.ParseDay("processed_to", v)
		if err != nil {
			return q, err
		}
		q.ProcessedTo = &t
	}
	q.OrderBy = values.Get("order_by")
	if v := values.Get("desc"); v != "" {
		if q.Descending, err = strconv.ParseBool(v); err != nil {
			return q, generic.Invalid("desc", "must be a boolean")
		}
	}
	return q, nil
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}
