// Package ratelimit implements per-client fixed-window request limiting for
// the banner delivery endpoint.
// State lives in process memory only; a restart resets every client's budget.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Response headers carrying rate limit telemetry.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Window is the counting window for a single client.
type Window struct {
	// ClientKey identifies the caller (usually the network address).
	ClientKey string `json:"client_key"`

	// WindowStart marks the start of the current counting window.
	WindowStart time.Time `json:"window_start"`

	// Count is the number of requests observed in the current window.
	Count int `json:"count"`
}

// End returns the instant the window closes.
func (w *Window) End(duration time.Duration) time.Time {
	return w.WindowStart.Add(duration)
}

// IsOver returns true once now has reached the end of the window.
func (w *Window) IsOver(now time.Time, duration time.Duration) bool {
	return !now.Before(w.End(duration))
}

// Decision is the outcome of a single Check.
type Decision struct {
	// Allowed reports whether the request is admitted.
	Allowed bool `json:"allowed"`

	// Limit is the configured maximum requests per window.
	Limit int `json:"limit"`

	// Remaining is how many more requests the client may make in this window.
	Remaining int `json:"remaining"`

	// ResetTime is when the client's current window ends.
	ResetTime time.Time `json:"reset_time"`
}

// RetryAfter returns the number of whole seconds until the window resets,
// rounded up. Never less than 1 so the header is always actionable.
func (d Decision) RetryAfter(now time.Time) int {
	wait := d.ResetTime.Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// SetHeaders writes the X-RateLimit-* telemetry headers.
func (d Decision) SetHeaders(h http.Header) {
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetTime.Unix(), 10))
}
