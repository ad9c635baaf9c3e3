// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `yaml:"level"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool `yaml:"pretty"`

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer `yaml:"-"`
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ValidateLevel reports whether level names a supported log level.
func ValidateLevel(level LogLevel) error {
	switch strings.ToLower(string(level)) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// AccessLog wraps next with a per-request access log line written at Debug
// level. Banner requests are high-volume; failures are logged separately by
// the delivery handler at their own level.
func AccessLog(logger zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request served")
	})(next)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	return hlog.NewHandler(logger)(h)
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Access log lines
//   - Cache decisions (hit, miss, stale version)
//   - Script generation on the miss path
//   - Client errors (bad id, wrong method) and rate limit rejections
//
// Info: Normal operation events
//   - Unknown banner ids (404)
//   - Server startup/shutdown
//   - Cache warm-up results
//
// Warn: Warning conditions that don't prevent operation
//   - A client exceeding its rate limit window (once per window)
//   - Warm-up failures for single banners
//
// Error: Error conditions requiring attention
//   - Configuration store failures and timeouts
//   - Stored configs that fail to decode or render
//   - Recovered panics
//   - Startup errors
//
// Context Fields:
//   - component: Logger origin (delivery, ratelimit, warmup, server)
//   - banner_id: Canonical banner UUID
//   - client: Rate limit key of the caller
//   - status: HTTP status code
//   - error_class: client, rate_limit, not_found, upstream, generation, internal
//   - etag: Entity tag of the served version
//   - duration: Request or warm-up duration
