// Package warmup preloads the banner script cache before a process starts
// serving traffic.
//
// A fresh process has an empty cache, so the first requests for every
// banner hit the configuration store and the generator at once. Warming
// the most requested banners at boot flattens that spike.
//
// Example usage:
//
//	w := warmup.NewWarmer(handler, warmup.DefaultConfig(), logger)
//	result, err := w.Warm(ctx, ids)
//
// The warmer:
//   - Runs a bounded worker pool (default 4 workers)
//   - Applies a timeout to every single banner
//   - Keeps going when single banners fail (returns partial results)
//   - Leaves no goroutines behind once Warm returns
package warmup
