package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks script cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "banner_cache_hits_total",
			Help: "Total number of banner script cache hits",
		},
	)

	// CacheMisses tracks script cache misses (absent or expired)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "banner_cache_misses_total",
			Help: "Total number of banner script cache misses",
		},
	)

	// CacheEntries tracks entries physically held in memory, including
	// expired ones that have not been swept yet
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "banner_cache_entries",
			Help: "Current number of entries held by the banner script cache",
		},
	)

	// CacheSwept tracks entries removed by sweep passes
	CacheSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "banner_cache_swept_total",
			Help: "Total number of expired banner script cache entries removed by sweeps",
		},
	)
)
