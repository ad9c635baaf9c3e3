// Package cache provides the process-local script cache used by the
// banner delivery endpoint.
package cache

import (
	"time"
)

// CacheEntry represents a generated banner script held in memory.
type CacheEntry struct {
	// Key is the normalized cache key (see Key)
	Key string `json:"key"`

	// Script is the response body, ready to be written as-is
	Script string `json:"script"`

	// IsActive distinguishes a live banner from the inactive stub
	IsActive bool `json:"is_active"`

	// ETag identifies the configuration version the script was generated from
	ETag string `json:"etag,omitempty"`

	// ExpiresAt is when the entry becomes stale and must be treated as a miss
	ExpiresAt time.Time `json:"expires_at"`

	// CachedAt is when we stored this entry
	CachedAt time.Time `json:"cached_at"`
}

// Value is what callers store; the cache adds key and timestamps.
type Value struct {
	Script   string
	IsActive bool
	ETag     string
}

// IsExpired returns true if the entry has expired at the given instant.
// An entry is expired from ExpiresAt onwards.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
