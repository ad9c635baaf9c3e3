package warmup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	warmupResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banner_warmup_results_total",
		Help: "Total banners processed by cache warm-up by result",
	}, []string{"result"}) // "active", "inactive", "failed"

	warmupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "banner_warmup_duration_seconds",
		Help:    "Duration of cache warm-up runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

// Config holds warm-up configuration.
type Config struct {
	// Concurrency is the number of banners loaded in parallel.
	Concurrency int `yaml:"concurrency"`

	// Timeout bounds the load of a single banner.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default warm-up configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     5 * time.Second,
	}
}

// Loader loads one banner into the script cache and reports whether it is
// active. *delivery.Handler implements it.
type Loader interface {
	Preload(ctx context.Context, bannerID string) (bool, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, bannerID string) (bool, error)

// Preload implements Loader.
func (f LoaderFunc) Preload(ctx context.Context, bannerID string) (bool, error) {
	return f(ctx, bannerID)
}

// Result summarizes a warm-up run.
type Result struct {
	Active   int
	Inactive int
	Failed   map[string]error
	Duration time.Duration
}

// Total returns the number of banners processed.
func (r Result) Total() int {
	return r.Active + r.Inactive + len(r.Failed)
}

type outcome struct {
	id     string
	active bool
	err    error
}

// Warmer preloads the script cache with a bounded worker pool.
type Warmer struct {
	loader Loader
	config Config
	logger zerolog.Logger
}

// NewWarmer creates a warmer. Non-positive settings fall back to defaults.
func NewWarmer(loader Loader, cfg Config, logger zerolog.Logger) *Warmer {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &Warmer{
		loader: loader,
		config: cfg,
		logger: logger,
	}
}

// Warm loads every id and blocks until all workers have stopped. Failures
// of single banners do not stop the run; they are collected in
// Result.Failed and reported as a combined error alongside the partial
// result. A cancelled context stops the run early.
func (w *Warmer) Warm(ctx context.Context, ids []string) (Result, error) {
	start := time.Now()
	result := Result{Failed: make(map[string]error)}
	if len(ids) == 0 {
		return result, nil
	}

	workers := w.config.Concurrency
	if workers > len(ids) {
		workers = len(ids)
	}

	w.logger.Info().
		Int("banners", len(ids)).
		Int("workers", workers).
		Msg("Starting cache warm-up")

	queue := make(chan string)
	outcomes := make(chan outcome, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.worker(ctx, queue, outcomes, &wg)
	}

	go func() {
		defer close(queue)
		for _, id := range ids {
			select {
			case queue <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		switch {
		case o.err != nil:
			result.Failed[o.id] = o.err
			warmupResultsTotal.WithLabelValues("failed").Inc()
			w.logger.Warn().
				Err(o.err).
				Str("banner_id", o.id).
				Msg("Banner warm-up failed")
		case o.active:
			result.Active++
			warmupResultsTotal.WithLabelValues("active").Inc()
		default:
			result.Inactive++
			warmupResultsTotal.WithLabelValues("inactive").Inc()
		}
	}

	result.Duration = time.Since(start)
	warmupDuration.Observe(result.Duration.Seconds())

	w.logger.Info().
		Int("active", result.Active).
		Int("inactive", result.Inactive).
		Int("failed", len(result.Failed)).
		Dur("duration", result.Duration).
		Msg("Cache warm-up complete")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("warm-up interrupted (%d/%d banners): %w", result.Total(), len(ids), err)
	}
	if len(result.Failed) > 0 {
		errs := make([]error, 0, len(result.Failed))
		for _, id := range ids {
			if err, ok := result.Failed[id]; ok {
				errs = append(errs, err)
			}
		}
		return result, fmt.Errorf("warm-up incomplete (%d/%d banners failed): %w",
			len(result.Failed), len(ids), errors.Join(errs...))
	}
	return result, nil
}

func (w *Warmer) worker(ctx context.Context, queue <-chan string, outcomes chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for id := range queue {
		if ctx.Err() != nil {
			return
		}

		loadCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		active, err := w.loader.Preload(loadCtx, id)
		cancel()

		outcomes <- outcome{id: id, active: active, err: err}
	}
}
