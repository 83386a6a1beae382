// Package metrics exposes the Prometheus registry shared by the ontap packages.
// All metrics are defined in their respective packages (client, cache,
// service, api) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and a reference for all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the ontap packages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - ontap_cache_hits_total{tier} (Counter): Cache hits by tier
//   - ontap_cache_misses_total{tier} (Counter): Cache misses by tier
//   - ontap_cache_errors_total{tier, operation} (Counter): Cache backend errors
//   - ontap_cache_written_bytes_total{tier} (Counter): Payload bytes written
//   - ontap_cache_backfills_total{tier} (Counter): Entries copied into a faster tier
//
// Request Metrics (pkg/client):
//   - ontap_requests_total{endpoint, status} (Counter): Catalog requests by endpoint and HTTP status
//   - ontap_request_duration_seconds{endpoint} (Histogram): Catalog request duration
//   - ontap_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Query Metrics (pkg/service):
//   - ontap_beer_queries_total{outcome} (Counter): Beer queries by outcome (ok, partial, error)
//   - ontap_beer_query_duration_seconds (Histogram): End-to-end beer query duration
//   - ontap_skipped_pubs_total (Counter): Pubs left out of a query after a failed taps fetch
//
// HTTP API Metrics (internal/api):
//   - ontap_http_requests_total{route, status} (Counter): API requests by route pattern
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(ontap_cache_hits_total[5m])) /
//   (sum(rate(ontap_cache_hits_total[5m])) + sum(rate(ontap_cache_misses_total{tier="memory"}[5m])))
//
//   # Partial Query Rate
//   rate(ontap_beer_queries_total{outcome="partial"}[5m]) / rate(ontap_beer_queries_total[5m])
//
//   # P95 Catalog Latency
//   histogram_quantile(0.95, rate(ontap_request_duration_seconds_bucket[5m]))
