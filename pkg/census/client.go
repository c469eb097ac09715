// Package census provides the HTTP client for the Census Bureau data API
// with error classification and bounded retry.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/atlregional/acsfetch/pkg/chunker"
	"github.com/atlregional/acsfetch/pkg/table"
)

// Prometheus metrics for API operations.
var (
	acsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acs_requests_total",
		Help: "Total census API requests by status",
	}, []string{"status"})

	acsRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "acs_request_duration_seconds",
		Help:    "Census API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	acsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acs_errors_total",
		Help: "Total census API errors by class",
	}, []string{"class"})

	acsRowsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acs_rows_fetched_total",
		Help: "Total block-group data rows fetched",
	})
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx rejections (other than rate limits).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// GeographyUnit is the scope of one request: all block groups of one county.
type GeographyUnit struct {
	State  string
	County string
}

// String returns the unit as "state:county" for logs and error context.
func (u GeographyUnit) String() string {
	return u.State + ":" + u.County
}

// Client is the census API client. All calls are sequential; the client holds
// no mutable state beyond the underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	year       int
	dataset    string
	apiKey     string
	retry      RetryConfig
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, without trailing slash. Overridable for tests.
	BaseURL string

	// Year of the ACS vintage, e.g. 2023.
	Year int

	// Dataset path under the year, e.g. "acs/acs5".
	Dataset string

	// APIKey is the census API credential. Optional for small request
	// volumes; the API throttles keyless callers aggressively.
	APIKey string

	// Timeout is the per-request network timeout.
	Timeout time.Duration

	// Retry is the bounded-retry policy for transient failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for the given vintage.
func DefaultConfig(year int) Config {
	return Config{
		BaseURL: "https://api.census.gov",
		Year:    year,
		Dataset: "acs/acs5",
		Timeout: 30 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// New creates a new census API client.
func New(cfg Config) (*Client, error) {
	if cfg.Year <= 0 {
		return nil, fmt.Errorf("year is required (got %d)", cfg.Year)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.census.gov"
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "acs/acs5"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Retry.InitialBackoff <= 0 {
		return nil, fmt.Errorf("initial backoff must be positive (got %v)", cfg.Retry.InitialBackoff)
	}

	logger := log.With().Str("component", "census-client").Logger()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		year:       cfg.Year,
		dataset:    cfg.Dataset,
		apiKey:     cfg.APIKey,
		retry:      cfg.Retry,
		logger:     logger,
	}, nil
}

// FetchBlockGroups requests one variable chunk for every block group of one
// county and parses the response into a ChunkTable. Transient failures are
// retried under the client's retry policy; rejections and malformed bodies
// fail immediately.
//
// A header-only response (zero data rows) is a valid empty table.
func (c *Client) FetchBlockGroups(ctx context.Context, unit GeographyUnit, chunk chunker.Chunk) (*table.ChunkTable, error) {
	q := url.Values{}
	q.Set("get", chunk.Query())
	q.Set("for", "block group:*")
	q.Set("in", fmt.Sprintf("state:%s county:%s", unit.State, unit.County))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/data/%d/%s?%s", c.baseURL, c.year, c.dataset, q.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", chunk.Query(), unit, err)
	}

	t, err := parseTable(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", chunk.Query(), unit, err)
	}

	acsRowsFetchedTotal.Add(float64(t.RowCount()))
	c.logger.Debug().
		Str("county", unit.String()).
		Int("variables", len(chunk)).
		Int("rows", t.RowCount()).
		Msg("Fetched chunk")

	return t, nil
}

// get performs one GET with classified retry and returns the response body.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte

	attempt := func() error {
		start := time.Now()
		defer func() {
			acsRequestDuration.Observe(time.Since(start).Seconds())
		}()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			acsRequestsTotal.WithLabelValues("network_error").Inc()
			acsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{Class: ErrorClassNetwork, Err: err}
		}
		defer resp.Body.Close()

		acsRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			acsErrorsTotal.WithLabelValues(string(class)).Inc()

			// The API reports the reason in a plain-text body; keep a bounded
			// slice of it for the error message.
			msg := resp.Status
			if b, readErr := io.ReadAll(io.LimitReader(resp.Body, 200)); readErr == nil && len(b) > 0 {
				msg = string(b)
			}

			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Census API request error")

			return &APIError{
				StatusCode: resp.StatusCode,
				Class:      class,
				Message:    msg,
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			acsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{Class: ErrorClassNetwork, Err: err}
		}
		return nil
	}

	err := retryWithBackoff(ctx, c.retry, c.logger, attempt)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Class == ErrorClassClient {
			return nil, fmt.Errorf("%w: %v", ErrFetchRejected, apiErr)
		}
		return nil, err
	}
	return body, nil
}

// classifyStatus categorizes an HTTP error status for retry handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// parseTable decodes the API's array-of-arrays body: a header row of field
// names followed by string-valued data rows of equal width.
func parseTable(body []byte) (*table.ChunkTable, error) {
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchMalformed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty response array", ErrFetchMalformed)
	}

	t, err := table.New(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchMalformed, err)
	}
	return t, nil
}
