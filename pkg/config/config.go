// Package config loads bannerd configuration from a YAML file and BANNER_*
// environment variables.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment.
// Durations use Go syntax ("90s", "5m").
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/banner-delivery/pkg/delivery"
	"github.com/Sternrassler/banner-delivery/pkg/logging"
	"github.com/Sternrassler/banner-delivery/pkg/ratelimit"
	"github.com/Sternrassler/banner-delivery/pkg/warmup"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BANNER_"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds the configuration store connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// ConnectAttempts and ConnectBackoff control how long serve waits for
	// Redis at startup. Requests themselves are never retried.
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

// WarmupConfig lists the banners preloaded at startup.
type WarmupConfig struct {
	warmup.Config `yaml:",inline"`
	IDs           []string `yaml:"ids"`
}

// Config is the complete bannerd configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Redis     RedisConfig      `yaml:"redis"`
	Log       logging.Config   `yaml:"log"`
	Delivery  delivery.Config  `yaml:"delivery"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
	Warmup    WarmupConfig     `yaml:"warmup"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			ConnectAttempts: 5,
			ConnectBackoff:  500 * time.Millisecond,
		},
		Log:       logging.DefaultConfig(),
		Delivery:  delivery.DefaultConfig(),
		RateLimit: ratelimit.DefaultConfig(),
		Warmup: WarmupConfig{
			Config: warmup.DefaultConfig(),
		},
	}
}

// Load reads path (optional) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(bytes.NewReader(raw), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	parse := func(name string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			if err == nil {
				*dst = d
			}
			return err
		}
	}
	integer := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err == nil {
				*dst = n
			}
			return err
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				*dst = b
			}
			return err
		}
	}

	str("SERVER_ADDR", &cfg.Server.Addr)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	parse("REDIS_DB", integer(&cfg.Redis.DB))
	parse("REDIS_CONNECT_ATTEMPTS", integer(&cfg.Redis.ConnectAttempts))

	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Log.Level = logging.LogLevel(v)
	}
	parse("LOG_PRETTY", boolean(&cfg.Log.Pretty))

	parse("CACHE_TTL", duration(&cfg.Delivery.CacheTTL))
	parse("INACTIVE_CACHE_TTL", duration(&cfg.Delivery.InactiveCacheTTL))
	parse("STORE_TIMEOUT", duration(&cfg.Delivery.StoreTimeout))
	parse("COALESCE_MISSES", boolean(&cfg.Delivery.CoalesceMisses))
	parse("TRUST_PROXY_HEADERS", boolean(&cfg.Delivery.TrustProxyHeaders))

	parse("RATE_LIMIT_WINDOW", duration(&cfg.RateLimit.Window))
	parse("RATE_LIMIT_MAX_REQUESTS", integer(&cfg.RateLimit.MaxRequests))

	if v, ok := lookup(EnvPrefix + "WARMUP_IDS"); ok {
		cfg.Warmup.IDs = splitList(v)
	}
	parse("WARMUP_CONCURRENCY", integer(&cfg.Warmup.Concurrency))

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must not be negative (got %d)", c.Redis.DB))
	}
	if c.Redis.ConnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("redis.connect_attempts must be at least 1 (got %d)", c.Redis.ConnectAttempts))
	}
	if c.Redis.ConnectBackoff <= 0 {
		errs = append(errs, errors.New("redis.connect_backoff must be positive"))
	}
	if err := logging.ValidateLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.Delivery.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("delivery: %w", err))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive (got %s)", c.RateLimit.Window))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests must be positive (got %d)", c.RateLimit.MaxRequests))
	}
	if c.Warmup.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("warmup.concurrency must not be negative (got %d)", c.Warmup.Concurrency))
	}
	for _, id := range c.Warmup.IDs {
		if _, err := delivery.ParseBannerID(id); err != nil {
			errs = append(errs, fmt.Errorf("warmup.ids: %q is not a canonical banner id", id))
		}
	}

	return errors.Join(errs...)
}
