package ratelimit

import (
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banner_rate_limit_checks_total",
		Help: "Total number of rate limit checks by result",
	}, []string{"result"}) // "allowed", "rejected"

	rateLimitWindows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "banner_rate_limit_windows",
		Help: "Number of client windows currently tracked",
	})
)

// Defaults for the delivery endpoint.
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 100
)

// Config holds limiter configuration. It is fixed at construction.
type Config struct {
	// Window is the length of each counting window.
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of requests admitted per client per window.
	MaxRequests int `yaml:"max_requests"`
}

// DefaultConfig returns the default limiter configuration (100 req/min).
func DefaultConfig() Config {
	return Config{
		Window:      DefaultWindow,
		MaxRequests: DefaultMaxRequests,
	}
}

// Limiter is a fixed-window request counter keyed by client identity.
// It is safe for concurrent use; each Check is applied atomically.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*Window
	config  Config
	logger  zerolog.Logger
	now     func() time.Time
	rand    func() float64
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithRand overrides the random source used by MaybeSweep (for testing).
func WithRand(r func() float64) Option {
	return func(l *Limiter) {
		l.rand = r
	}
}

// NewLimiter creates a new limiter. Non-positive config values fall back
// to the defaults.
func NewLimiter(cfg Config, logger zerolog.Logger, opts ...Option) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}

	l := &Limiter{
		windows: make(map[string]*Window),
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		rand:    rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// Check records a request for clientKey and decides whether it is admitted.
// It never fails: a client without state is simply on its first request.
func (l *Limiter) Check(clientKey string) Decision {
	now := l.now()

	l.mu.Lock()
	w, ok := l.windows[clientKey]
	if !ok || w.IsOver(now, l.config.Window) {
		if !ok {
			rateLimitWindows.Inc()
		}
		w = &Window{ClientKey: clientKey, WindowStart: now}
		l.windows[clientKey] = w
	}
	w.Count++
	count := w.Count
	reset := w.End(l.config.Window)
	l.mu.Unlock()

	d := Decision{
		Limit:     l.config.MaxRequests,
		ResetTime: reset,
	}

	if count <= l.config.MaxRequests {
		d.Allowed = true
		d.Remaining = l.config.MaxRequests - count
		rateLimitChecksTotal.WithLabelValues("allowed").Inc()
		return d
	}

	rateLimitChecksTotal.WithLabelValues("rejected").Inc()

	// Log once per window to keep abusive clients from flooding the log
	if count == l.config.MaxRequests+1 {
		l.logger.Warn().
			Str("client", clientKey).
			Int("max_requests", l.config.MaxRequests).
			Time("reset_at", reset).
			Msg("Client exceeded rate limit")
	}

	return d
}

// Sweep removes windows that have ended and returns how many were removed.
// A swept client starts a fresh window on its next request, which is the
// same outcome Check produces for an ended window.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0

	l.mu.Lock()
	for key, w := range l.windows {
		if w.IsOver(now, l.config.Window) {
			delete(l.windows, key)
			removed++
		}
	}
	l.mu.Unlock()

	if removed > 0 {
		rateLimitWindows.Sub(float64(removed))
		l.logger.Debug().Int("removed", removed).Msg("Swept ended rate limit windows")
	}
	return removed
}

// MaybeSweep runs Sweep with the given probability and reports whether it ran.
func (l *Limiter) MaybeSweep(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability < 1 && l.rand() >= probability {
		return false
	}
	l.Sweep()
	return true
}

// Len returns the number of tracked client windows.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
