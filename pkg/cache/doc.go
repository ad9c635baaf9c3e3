// Package cache provides the in-process script cache for banner delivery.
//
// The script cache maps a banner identifier to its most recently generated
// script with the following properties:
//
// - Process-local and best effort (a cold start begins empty)
// - Lazy expiry on read: Get never returns an expired entry
// - Probabilistic sweeping instead of a background timer
// - Active and inactive banners are both cached
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	scripts := cache.NewScriptCache()
//
//	// Store a generated script for five minutes
//	scripts.Set(bannerID, cache.Value{Script: script, IsActive: true, ETag: etag}, 5*time.Minute)
//
//	// Read it back
//	entry, ok := scripts.Get(bannerID)
//	if !ok {
//		// Cache miss - fetch config and generate
//	}
//
// # Sweeping
//
// Serverless hosts may freeze the process between requests, so there is no
// sweeper goroutine. Call MaybeSweep once per request with a small
// probability instead:
//
//	scripts.MaybeSweep(0.01)
//
// Sweeping only reclaims memory. Correctness never depends on it.
//
// # Metrics
//
// The script cache exports Prometheus metrics:
//
//   - banner_cache_hits_total - Cache hits
//   - banner_cache_misses_total - Cache misses (absent or expired)
//   - banner_cache_entries - Entries held in memory
//   - banner_cache_swept_total - Entries reclaimed by sweeps
package cache
