// Package metrics exposes the Prometheus metrics of the console pager.
// All metrics are defined in their respective packages (client, cache,
// pagination) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and a reference for all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the console pager.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving every registered metric.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - console_api_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - console_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - console_api_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - pager_cache_hits_total{layer} (Counter): Page cache hits by layer (memory, redis)
//   - pager_cache_misses_total{layer} (Counter): Page cache misses by layer
//   - pager_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pager Metrics (pkg/pagination):
//   - pager_fetches_total{entity, outcome} (Counter): Page fetches (ok, error)
//   - pager_fetch_duration_seconds{entity} (Histogram): Page fetch duration
//   - pager_prefetches_total{entity, outcome} (Counter): Prefetches (ok, error, cached, duplicate)
//   - pager_superseded_total{entity} (Counter): Visible fetches discarded by a newer navigation
//   - pager_guard_violations_total{entity} (Counter): Navigation outside the list bounds
//
// Example Prometheus Queries:
//
//   # Page Cache Hit Rate
//   sum(rate(pager_cache_hits_total[5m])) /
//   (sum(rate(pager_cache_hits_total[5m])) + sum(rate(pager_cache_misses_total[5m])))
//
//   # Prefetch Usefulness
//   rate(pager_prefetches_total{outcome="ok"}[5m]) / rate(pager_fetches_total[5m])
//
//   # Request Error Rate
//   rate(console_api_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(console_api_request_duration_seconds_bucket[5m]))
