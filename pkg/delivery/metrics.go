package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for banner delivery.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banner_requests_total",
		Help: "Total banner script requests by HTTP status and cache result",
	}, []string{"status", "cache"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "banner_request_duration_seconds",
		Help:    "Banner script request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
	})

	notModifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banner_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banner_errors_total",
		Help: "Total delivery failures by class",
	}, []string{"class"})

	generationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banner_generation_errors_total",
		Help: "Total number of banner configs that failed to render",
	})

	coalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banner_coalesced_misses_total",
		Help: "Total number of cache misses served by another request's generation",
	})
)
