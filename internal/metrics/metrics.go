// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_operation_duration_seconds",
			Help:    "Duration of recommendation operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_operation_errors_total",
			Help: "Total number of failed recommendation operations",
		},
		[]string{"operation"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Recommendation responses by source (collaborative, popular, empty)",
		},
		[]string{"source"},
	)

	NeighborsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_neighbors_found",
			Help:    "Number of positively correlated neighbors found per similar-users query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"kind"},
	)

	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_cache_breaker_open",
			Help: "1 when the cache circuit breaker is open, 0 otherwise",
		},
	)

	RatingWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_writes_total",
			Help: "Rating writes by outcome (created, updated, deleted)",
		},
		[]string{"outcome"},
	)
)

// ObserveOperation records the duration of an operation and counts it as an
// error when err is non-nil.
func ObserveOperation(operation string, start time.Time, err error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(operation).Inc()
	}
}
