package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var storeConnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "banner_store_connect_attempts_total",
	Help: "Startup connection attempts to the configuration store by result",
}, []string{"result"}) // "success", "failure"

// maxConnectBackoff caps the exponential backoff between attempts.
const maxConnectBackoff = 10 * time.Second

// waitForStore pings the store until it answers, with exponential backoff
// and ±20% jitter. It only runs at startup.
func waitForStore(ctx context.Context, store pinger, attempts int, backoff, pingTimeout time.Duration, logger zerolog.Logger) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = store.Ping(pingCtx)
		cancel()

		if lastErr == nil {
			storeConnectAttempts.WithLabelValues("success").Inc()
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Configuration store reachable after retry")
			}
			return nil
		}
		storeConnectAttempts.WithLabelValues("failure").Inc()

		if attempt == attempts {
			break
		}

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Configuration store unreachable, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for configuration store: %w", ctx.Err())
		case <-time.After(jitter):
		}

		backoff *= 2
		if backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
	}

	return fmt.Errorf("configuration store unreachable after %d attempts: %w", attempts, lastErr)
}
