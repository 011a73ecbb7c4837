package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pager_fetches_total",
		Help: "Total page fetches by entity and outcome",
	}, []string{"entity", "outcome"}) // "ok", "error"

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pager_fetch_duration_seconds",
		Help:    "Page fetch duration in seconds by entity",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"entity"})

	prefetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pager_prefetches_total",
		Help: "Total background prefetches by entity and outcome",
	}, []string{"entity", "outcome"}) // "ok", "error", "cached", "duplicate"

	supersededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pager_superseded_total",
		Help: "Visible fetches discarded because a newer navigation was issued",
	}, []string{"entity"})

	guardViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pager_guard_violations_total",
		Help: "Navigation attempts outside the list bounds",
	}, []string{"entity"})
)
