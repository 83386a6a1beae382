package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontap_cache_hits_total",
			Help: "Total number of catalog cache hits",
		},
		[]string{"tier"}, // "memory", "redis", "sqlite"
	)

	// CacheMisses tracks cache misses by tier
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontap_cache_misses_total",
			Help: "Total number of catalog cache misses",
		},
		[]string{"tier"},
	)

	// CacheErrors tracks backend errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontap_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"tier", "operation"}, // "get", "set", "list", "delete"
	)

	// CacheWrittenBytes tracks payload bytes written by tier
	CacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontap_cache_written_bytes_total",
			Help: "Total payload bytes written to the cache",
		},
		[]string{"tier"},
	)

	// CacheBackfills tracks entries copied into an earlier tier after a later-tier hit
	CacheBackfills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontap_cache_backfills_total",
			Help: "Total number of entries backfilled into an earlier cache tier",
		},
		[]string{"tier"},
	)
)
