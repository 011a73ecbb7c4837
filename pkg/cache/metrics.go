package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache layers used as metric label values.
const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
)

var (
	// CacheHits tracks page cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pager_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks page cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pager_cache_misses_total",
			Help: "Total number of page cache misses",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pager_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
