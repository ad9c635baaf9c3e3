package delivery

import (
	"fmt"
	"time"
)

// Config holds delivery handler configuration.
type Config struct {
	// CacheTTL is how long a generated script for an active banner stays in
	// the in-process cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// InactiveCacheTTL is the same for the inactive stub. Usually shorter.
	InactiveCacheTTL time.Duration `yaml:"inactive_cache_ttl"`

	// MaxAge and StaleWhileRevalidate populate Cache-Control for shared
	// caches (browsers, CDNs) in front of the endpoint.
	MaxAge               time.Duration `yaml:"max_age"`
	StaleWhileRevalidate time.Duration `yaml:"stale_while_revalidate"`

	// SweepProbability is the per-request chance of sweeping expired cache
	// entries and ended rate limit windows.
	SweepProbability float64 `yaml:"sweep_probability"`

	// StoreTimeout bounds all configuration store calls of one request.
	StoreTimeout time.Duration `yaml:"store_timeout"`

	// CoalesceMisses lets concurrent misses for the same banner version
	// share a single fetch and generation.
	CoalesceMisses bool `yaml:"coalesce_misses"`

	// TrustProxyHeaders takes the client identity from the last
	// X-Forwarded-For hop, or X-Real-IP. Enable only behind a proxy that
	// appends them; otherwise callers choose their own identity.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// DefaultConfig returns the default delivery configuration.
func DefaultConfig() Config {
	return Config{
		CacheTTL:             5 * time.Minute,
		InactiveCacheTTL:     1 * time.Minute,
		MaxAge:               60 * time.Second,
		StaleWhileRevalidate: 300 * time.Second,
		SweepProbability:     0.01,
		StoreTimeout:         3 * time.Second,
		CoalesceMisses:       false,
		TrustProxyHeaders:    false,
	}
}

// Validate checks the configuration for values the handler cannot work with.
func (c Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive (got %s)", c.CacheTTL)
	}
	if c.InactiveCacheTTL <= 0 || c.InactiveCacheTTL > c.CacheTTL {
		return fmt.Errorf("inactive_cache_ttl must be positive and <= cache_ttl (got %s)", c.InactiveCacheTTL)
	}
	if c.MaxAge < 0 || c.StaleWhileRevalidate < 0 {
		return fmt.Errorf("max_age and stale_while_revalidate must not be negative")
	}
	if c.SweepProbability < 0 || c.SweepProbability > 1 {
		return fmt.Errorf("sweep_probability must be within [0,1] (got %g)", c.SweepProbability)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive (got %s)", c.StoreTimeout)
	}
	return nil
}
