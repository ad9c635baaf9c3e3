// Package delivery implements the public banner script endpoint.
//
// A Handler answers GET /v1/banner.js?id=<uuid> with a JavaScript snippet
// that renders a consent banner on the embedding page. The request is
// validated, rate limited per client, revalidated against the banner store
// for its current version, and served from the in-process script cache
// when the cached script belongs to that version.
//
// # Usage
//
//	h, err := delivery.NewHandler(
//	    delivery.DefaultConfig(),
//	    store,
//	    banner.NewScriptGenerator(),
//	    cache.NewScriptCache(),
//	    ratelimit.NewLimiter(ratelimit.DefaultConfig(), logger),
//	    logger,
//	)
//	if err != nil {
//	    return err
//	}
//	mux.Handle("/v1/banner.js", h)
//
// # Conditional Requests
//
// The entity tag is "<id>-<updatedAt unix millis>". It changes exactly
// when the stored configuration changes, so a matching If-None-Match is
// answered with 304 whether or not the script is cached.
//
// # Failure Responses
//
// The response is executed by a <script> tag on a third-party site. Every
// failure (bad id, rate limit, unknown banner, store outage, broken
// configuration, panic) is answered with the appropriate status code and
// a single console call as the body, with Cache-Control: no-store.
//
// # Metrics
//
//   - banner_requests_total{status,cache}
//   - banner_request_duration_seconds
//   - banner_304_responses_total
//   - banner_errors_total{class}
//   - banner_generation_errors_total
//   - banner_coalesced_misses_total
package delivery
