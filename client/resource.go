package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
)

// Resource is one REST collection, e.g. /api/transactions.
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource returns the collection at path (e.g. "/api/categories").
func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

// Fetch implements generic.Fetcher.
func (r *Resource[T]) Fetch(ctx context.Context, q generic.Query) (generic.Page[T], error) {
	if err := q.Validate(); err != nil {
		return generic.Page[T]{}, err
	}

	var resp wire.ListResponse[T]
	if err := r.c.do(ctx, http.MethodGet, r.path, encodeQuery(q), nil, &resp); err != nil {
		return generic.Page[T]{}, err
	}
	return generic.NewPage(resp.Data, resp.TotalCount), nil
}

// Get returns one record.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Create posts v and returns the stored record with its server-assigned ID.
func (r *Resource[T]) Create(ctx context.Context, v T) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPost, r.path, nil, v, &out)
	return out, err
}

// Update replaces the record with id.
func (r *Resource[T]) Update(ctx context.Context, id string, v T) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), nil, v, &out)
	return out, err
}

// Delete removes the record with id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, nil)
}

func encodeQuery(q generic.Query) url.Values {
	v := url.Values{
		"from": {strconv.Itoa(q.From)},
		"to":   {strconv.Itoa(q.To)},
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.CategoryID != nil {
		v.Set("category", *q.CategoryID)
	}
	if q.PaymentMethodID != nil {
		v.Set("payment_method", *q.PaymentMethodID)
	}
	if q.ProcessedFrom != nil {
		v.Set("processed_from", q.ProcessedFrom.Format(generic.DateLayout))
	}
	if q.ProcessedTo != nil {
		v.Set("processed_to", q.ProcessedTo.Format(generic.DateLayout))
	}
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
		v.Set("desc", strconv.FormatBool(q.Descending))
	}
	return v
}
