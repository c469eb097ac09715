// Package metrics provides the Prometheus metrics surface of the downloader.
// All metrics are defined next to the code they instrument (pkg/census,
// pkg/assembler) via promauto; this package exposes the registry and the
// scrape handler, and documents the available series.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer used by all packages. Metrics are
// registered automatically via promauto.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request metrics (pkg/census):
//   - acs_requests_total{status} (Counter): API requests by HTTP status
//     ("network_error" for transport failures)
//   - acs_request_duration_seconds (Histogram): per-attempt request duration
//   - acs_errors_total{class} (Counter): errors by class (client, server,
//     rate_limit, network)
//   - acs_rows_fetched_total (Counter): block-group data rows fetched
//
// Retry metrics (pkg/census):
//   - acs_retries_total{error_class} (Counter): retry attempts by error class
//   - acs_retry_backoff_seconds{error_class} (Histogram): backoff durations
//   - acs_retry_exhausted_total{error_class} (Counter): calls that exhausted
//     all attempts
//
// Assembly metrics (pkg/assembler):
//   - acs_tables_written_total (Counter): table groups written to disk
//   - acs_tables_failed_total (Counter): table groups skipped after failure
//   - acs_rows_written_total (Counter): data rows written across output files
//
// Example queries:
//
//   # Request error rate
//   rate(acs_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(acs_request_duration_seconds_bucket[5m]))
//
//   # Retry exhaustion
//   increase(acs_retry_exhausted_total[1h])
