// Package metrics exposes the Prometheus metrics of the Cronofy client.
// Metrics are defined in their respective packages (pagination, client, cache)
// and registered via promauto; this package serves them over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer the client's metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Path is where Handler is mounted by NewServer.
const Path = "/metrics"

// Handler serves every metric registered with Registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns an HTTP server exposing Handler at Path on addr.
// The caller starts it with ListenAndServe and stops it with Shutdown.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - cronofy_pages_fetched_total{data_type} (Counter): Follow-up pages fetched through next_page links
//   - cronofy_page_fetch_errors_total{data_type} (Counter): Failed follow-up page fetches
//   - cronofy_items_yielded_total{data_type} (Counter): Items returned by cursors
//
// Cache Metrics (pkg/cache):
//   - cronofy_cache_hits_total (Counter): Cache hits
//   - cronofy_cache_misses_total (Counter): Cache misses
//   - cronofy_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - cronofy_304_responses_total (Counter): 304 Not Modified responses
//   - cronofy_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - cronofy_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status;
//     next_page tokens collapse to /pages/:token
//   - cronofy_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - cronofy_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Example Prometheus Queries:
//
//   # Pages per paged read
//   sum(rate(cronofy_pages_fetched_total[5m])) by (data_type)
//
//   # Cache Hit Rate
//   sum(rate(cronofy_cache_hits_total[5m])) /
//   (sum(rate(cronofy_cache_hits_total[5m])) + sum(rate(cronofy_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(cronofy_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(cronofy_304_responses_total[5m]) / rate(cronofy_requests_total[5m])
