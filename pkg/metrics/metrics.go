// Package metrics exposes the Prometheus registry for banner delivery.
// All metrics are defined in their respective packages (delivery, cache,
// ratelimit, warmup) and registered via promauto.
//
// This package serves them and documents every series.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by banner delivery.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the counterpart of Registry used for scraping.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// NewBuildInfoCollector returns a collector exposing the running version
// as banner_build_info{version}.
func NewBuildInfoCollector(version string) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "banner_build_info",
		Help:        "Build information of the running banner delivery binary",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 })
}

// RegisterBuildInfo registers the build info collector once. Duplicate
// registrations are ignored.
func RegisterBuildInfo(version string) error {
	err := Registry.Register(NewBuildInfoCollector(version))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// NewRegistry returns an isolated registry with the Go and process
// collectors. bannerd serves the default Registry; this is for embedders
// and tests that must not touch global state.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Metrics Documentation
//
// Delivery Metrics (pkg/delivery):
//   - banner_requests_total{status, cache} (Counter): Requests by HTTP status and cache result (HIT, MISS, none)
//   - banner_request_duration_seconds (Histogram): End-to-end request duration
//   - banner_304_responses_total (Counter): 304 Not Modified responses
//   - banner_errors_total{class} (Counter): Failures by class (client, rate_limit, not_found, upstream, generation, internal)
//   - banner_generation_errors_total (Counter): Stored configs that failed to decode or render
//   - banner_coalesced_misses_total (Counter): Misses served by a concurrent request's generation
//
// Cache Metrics (pkg/cache):
//   - banner_cache_hits_total (Counter): Script cache hits
//   - banner_cache_misses_total (Counter): Script cache misses (absent or expired)
//   - banner_cache_entries (Gauge): Entries held in memory, including unswept expired ones
//   - banner_cache_swept_total (Counter): Expired entries removed by sweeps
//
// Rate Limit Metrics (pkg/ratelimit):
//   - banner_rate_limit_checks_total{result} (Counter): Checks by result (allowed, rejected)
//   - banner_rate_limit_windows (Gauge): Client windows currently tracked
//
// Warm-up Metrics (pkg/warmup):
//   - banner_warmup_results_total{result} (Counter): Warmed banners by result (active, inactive, failed)
//   - banner_warmup_duration_seconds (Histogram): Duration of warm-up runs
//
// Server Metrics (cmd/bannerd):
//   - banner_build_info{version} (Gauge): Always 1, labelled with the running version
//   - banner_store_connect_attempts_total{result} (Counter): Startup connection attempts to Redis
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(banner_cache_hits_total[5m])) /
//   (sum(rate(banner_cache_hits_total[5m])) + sum(rate(banner_cache_misses_total[5m])))
//
//   # Rejection Rate
//   rate(banner_rate_limit_checks_total{result="rejected"}[5m])
//
//   # Store Outages
//   rate(banner_errors_total{class="upstream"}[5m]) > 0
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(banner_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(banner_304_responses_total[5m]) / rate(banner_requests_total[5m])
