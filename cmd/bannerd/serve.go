package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/banner-delivery/pkg/banner"
	"github.com/Sternrassler/banner-delivery/pkg/cache"
	"github.com/Sternrassler/banner-delivery/pkg/config"
	"github.com/Sternrassler/banner-delivery/pkg/delivery"
	"github.com/Sternrassler/banner-delivery/pkg/logging"
	"github.com/Sternrassler/banner-delivery/pkg/metrics"
	"github.com/Sternrassler/banner-delivery/pkg/ratelimit"
	"github.com/Sternrassler/banner-delivery/pkg/warmup"
)

// BannerPath is where the delivery endpoint is mounted.
const BannerPath = "/v1/banner.js"

func newServeCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the banner delivery HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger("server")

	if err := metrics.RegisterBuildInfo(version); err != nil {
		return fmt.Errorf("register build info: %w", err)
	}

	redisClient := newRedisClient(cfg.Redis)
	defer redisClient.Close()

	store := banner.NewRedisStore(redisClient)
	if err := waitForStore(ctx, store, cfg.Redis.ConnectAttempts, cfg.Redis.ConnectBackoff, cfg.Delivery.StoreTimeout, logger); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info().Str("redis", cfg.Redis.Addr).Msg("Connected to configuration store")

	handler, err := delivery.NewHandler(
		cfg.Delivery,
		store,
		banner.NewScriptGenerator(),
		cache.NewScriptCache(),
		ratelimit.NewLimiter(cfg.RateLimit, logging.NewLogger("ratelimit")),
		logging.NewLogger("delivery"),
	)
	if err != nil {
		return err
	}

	if len(cfg.Warmup.IDs) > 0 {
		w := warmup.NewWarmer(handler, cfg.Warmup.Config, logging.NewLogger("warmup"))
		// Warm-up failures are logged per banner and do not block startup
		if _, err := w.Warm(ctx, cfg.Warmup.IDs); err != nil && ctx.Err() != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      logging.AccessLog(logger, newMux(handler, store, logger)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return runServer(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// runServer serves until ctx is done, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("Starting banner delivery server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
