package cache

import (
	"math/rand"
	"sync"
	"time"
)

// ScriptCache is a process-local store of generated banner scripts.
//
// It is best effort: a cold process starts empty and every entry can be
// rebuilt from the configuration store. Expiry is enforced lazily on Get,
// so Sweep only reclaims memory and never affects what callers observe.
type ScriptCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	now     func() time.Time
	rand    func() float64
}

// Option configures a ScriptCache.
type Option func(*ScriptCache)

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *ScriptCache) {
		c.now = now
	}
}

// WithRand overrides the random source used by MaybeSweep (for testing).
func WithRand(r func() float64) Option {
	return func(c *ScriptCache) {
		c.rand = r
	}
}

// NewScriptCache creates an empty script cache.
func NewScriptCache(opts ...Option) *ScriptCache {
	c := &ScriptCache{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
		rand:    rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for a banner identifier.
// The second return value is false if the key is absent or the entry has
// expired, whether or not a sweep has removed it yet.
func (c *ScriptCache) Get(bannerID string) (*CacheEntry, bool) {
	key := Key(bannerID)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.IsExpired(c.now()) {
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.Inc()

	// Hand out a copy so callers cannot mutate the stored entry
	cp := *entry
	return &cp, true
}

// Set stores a script for a banner identifier, replacing any prior entry.
// A non-positive ttl is not cached.
func (c *ScriptCache) Set(bannerID string, value Value, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := c.now()
	key := Key(bannerID)
	entry := &CacheEntry{
		Key:       key,
		Script:    value.Script,
		IsActive:  value.IsActive,
		ETag:      value.ETag,
		ExpiresAt: now.Add(ttl),
		CachedAt:  now,
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		CacheEntries.Inc()
	}
	c.entries[key] = entry
	c.mu.Unlock()
}

// Delete removes the entry for a banner identifier, if any.
func (c *ScriptCache) Delete(bannerID string) {
	key := Key(bannerID)

	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		delete(c.entries, key)
		CacheEntries.Dec()
	}
	c.mu.Unlock()
}

// Sweep physically removes all expired entries and returns how many
// were removed.
func (c *ScriptCache) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		CacheEntries.Sub(float64(removed))
		CacheSwept.Add(float64(removed))
	}
	return removed
}

// MaybeSweep runs Sweep with the given probability and reports whether it
// ran. It is meant to be called once per request in place of a timer.
func (c *ScriptCache) MaybeSweep(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability < 1 && c.rand() >= probability {
		return false
	}
	c.Sweep()
	return true
}

// Len returns the number of stored entries, including expired entries that
// have not been swept yet.
func (c *ScriptCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
