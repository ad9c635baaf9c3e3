package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/banner-delivery/pkg/metrics"
)

// pinger reports whether the configuration store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

func newMux(bannerHandler http.Handler, store pinger, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(BannerPath, bannerHandler)
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(store, logger))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func readyHandler(store pinger, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "configuration store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}
