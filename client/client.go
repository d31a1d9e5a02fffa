/*
Package client is a typed HTTP client for the budget engine REST API.

PURPOSE:
  Gives Go callers (budgetctl, integration tests) the same entity lists the
  web frontend uses. Every list endpoint is exposed as a generic.Fetcher, so
  it plugs straight into generic.NewEntityList.

USAGE:
  c, err := client.New("http://localhost:8080", client.WithRateLimit(10))
  store := client.NewStore(c, generic.WithRowsPerPage(8))
  if err := store.Transactions.GetPage(ctx, 2, 8, nil); err != nil { ... }
  rows := store.Transactions.Data()

ERRORS:
  Non-2xx responses become *APIError. APIError unwraps to generic.ErrNotFound
  for 404 and generic.ErrValidation for 400, so generic.IsNotFound and
  generic.IsClientError work on both sides of the wire.

SEE ALSO:
  - resource.go: Per-entity CRUD and Fetch
  - store.go: Entity lists for all resources
  - wire/dto.go: Wire types
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
	"golang.org/x/time/rate"
)

// Client talks to one budget engine server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "client")
	return c, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto the shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return generic.ErrNotFound
	case http.StatusBadRequest:
		return generic.ErrValidation
	case http.StatusConflict:
		return generic.ErrDuplicateExecution
	}
	return nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		"method", method,
		"url", u.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body wire.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	}
	return apiErr
}

// IsAPIError reports whether err carries an APIError with the given status.
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Upcoming returns the next executions of active recurring payments within
// days.
func (c *Client) Upcoming(ctx context.Context, days int) ([]wire.UpcomingPaymentDTO, error) {
	var out []wire.UpcomingPaymentDTO
	q := url.Values{"days": {strconv.Itoa(days)}}
	err := c.do(ctx, http.MethodGet, "/api/recurring-payments/upcoming", q, nil, &out)
	return out, err
}

// BudgetProgress returns the spending state of one budget.
func (c *Client) BudgetProgress(ctx context.Context, budgetID string) (wire.BudgetProgressDTO, error) {
	var out wire.BudgetProgressDTO
	err := c.do(ctx, http.MethodGet, "/api/budgets/"+url.PathEscape(budgetID)+"/progress", nil, nil, &out)
	return out, err
}

// CategoryStats returns spending per category for month (YYYY-MM, empty for
// the current month).
func (c *Client) CategoryStats(ctx context.Context, month string) ([]wire.CategoryTotalDTO, error) {
	var (
		out []wire.CategoryTotalDTO
		q   url.Values
	)
	if month != "" {
		q = url.Values{"month": {month}}
	}
	err := c.do(ctx, http.MethodGet, "/api/stats/categories", q, nil, &out)
	return out, err
}

// RunRecurring asks the server to book due recurring payments now.
func (c *Client) RunRecurring(ctx context.Context) (wire.RunSummaryDTO, error) {
	var out wire.RunSummaryDTO
	err := c.do(ctx, http.MethodPost, "/api/admin/recurring/run", nil, nil, &out)
	return out, err
}
