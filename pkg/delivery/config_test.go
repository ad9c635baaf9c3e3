package delivery

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.InactiveCacheTTL > cfg.CacheTTL {
		t.Error("InactiveCacheTTL longer than CacheTTL")
	}
	if cfg.CoalesceMisses {
		t.Error("CoalesceMisses enabled by default")
	}
	if cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache ttl", func(c *Config) { c.CacheTTL = 0 }},
		{"zero inactive ttl", func(c *Config) { c.InactiveCacheTTL = 0 }},
		{"inactive ttl above cache ttl", func(c *Config) { c.InactiveCacheTTL = c.CacheTTL + time.Second }},
		{"negative max age", func(c *Config) { c.MaxAge = -time.Second }},
		{"negative swr", func(c *Config) { c.StaleWhileRevalidate = -time.Second }},
		{"sweep probability above one", func(c *Config) { c.SweepProbability = 1.5 }},
		{"negative sweep probability", func(c *Config) { c.SweepProbability = -0.1 }},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}
