package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/banner-delivery/pkg/banner"
	"github.com/Sternrassler/banner-delivery/pkg/cache"
	"github.com/Sternrassler/banner-delivery/pkg/ratelimit"
)

// Response header values.
const (
	ContentTypeJavaScript = "application/javascript; charset=utf-8"

	HeaderCache = "X-Cache"
	CacheHit    = "HIT"
	CacheMiss   = "MISS"
)

// Handler serves banner scripts to embedding sites.
//
// Request flow: validate id → rate limit → metadata (ETag) → cache lookup →
// on miss fetch config, generate, populate cache → respond. Every path ends
// in exactly one response whose body is valid, harmless JavaScript.
type Handler struct {
	config    Config
	store     banner.Store
	generator banner.Generator
	scripts   *cache.ScriptCache
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger
	group     singleflight.Group
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the time source used for Retry-After (for testing).
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a delivery handler. All collaborators are required.
func NewHandler(cfg Config, store banner.Store, gen banner.Generator, scripts *cache.ScriptCache, limiter *ratelimit.Limiter, logger zerolog.Logger, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("delivery config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("banner store is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("script generator is required")
	}
	if scripts == nil {
		return nil, fmt.Errorf("script cache is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}

	h := &Handler{
		config:    cfg,
		store:     store,
		generator: gen,
		scripts:   scripts,
		limiter:   limiter,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Invalidate drops the cached script for a banner. It is for embedders that
// write banner records in the same process; bannerd itself relies on the
// ETag check, which already treats entries for older versions as misses.
func (h *Handler) Invalidate(bannerID string) {
	if id, err := ParseBannerID(bannerID); err == nil {
		h.scripts.Delete(id)
	}
}

// Preload runs the miss path for a banner and populates the cache. It
// reports whether the banner is active. Used by cache warm-up.
func (h *Handler) Preload(ctx context.Context, bannerID string) (bool, error) {
	id, err := ParseBannerID(bannerID)
	if err != nil {
		return false, fmt.Errorf("preload %q: %w", bannerID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.StoreTimeout)
	defer cancel()

	value, derr := h.load(ctx, id)
	if derr != nil {
		return false, derr
	}
	return value.IsActive, nil
}

// response guards the single response a request may produce.
type response struct {
	w       http.ResponseWriter
	log     zerolog.Logger
	written bool
	status  int
	cache   string
}

func (r *response) write(status int, body string) {
	if r.written {
		return
	}
	r.written = true
	r.status = status

	r.w.WriteHeader(status)
	if body != "" {
		if _, err := io.WriteString(r.w, body); err != nil {
			r.log.Debug().Err(err).Msg("Failed to write response body")
		}
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := &response{w: w, log: h.logger, cache: "none"}

	defer func() {
		if p := recover(); p != nil {
			// Deliberate aborts must still tear down the connection
			if p == http.ErrAbortHandler {
				panic(p)
			}
			resp.log.Error().
				Interface("panic", p).
				Msg("Recovered panic while delivering banner")
			h.fail(resp, &DeliveryError{
				Status:  http.StatusInternalServerError,
				Class:   ErrorClassInternal,
				Message: "banner temporarily unavailable",
				Err:     fmt.Errorf("panic: %v", p),
			})
		}

		requestDuration.Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(strconv.Itoa(resp.status), resp.cache).Inc()

		// Amortized cleanup in place of background timers
		h.scripts.MaybeSweep(h.config.SweepProbability)
		h.limiter.MaybeSweep(h.config.SweepProbability)
	}()

	h.serve(resp, r)
}

func (h *Handler) serve(resp *response, r *http.Request) {
	hdr := resp.w.Header()
	hdr.Set("Content-Type", ContentTypeJavaScript)
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("X-Content-Type-Options", "nosniff")

	// Step 1: Validate
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		hdr.Set("Allow", "GET, HEAD")
		h.fail(resp, &DeliveryError{
			Status:  http.StatusMethodNotAllowed,
			Class:   ErrorClassClient,
			Message: "method not allowed",
			Err:     ErrMethodNotAllowed,
		})
		return
	}

	id, err := ParseBannerID(r.URL.Query().Get("id"))
	if err != nil {
		h.fail(resp, &DeliveryError{
			Status:  http.StatusBadRequest,
			Class:   ErrorClassClient,
			Message: "missing or malformed banner id",
			Err:     err,
		})
		return
	}

	client := clientKey(r, h.config.TrustProxyHeaders)
	resp.log = h.logger.With().Str("banner_id", id).Str("client", client).Logger()

	// Step 2: Rate limit (before any store access)
	decision := h.limiter.Check(client)
	decision.SetHeaders(hdr)
	if !decision.Allowed {
		retryAfter := decision.RetryAfter(h.now())
		hdr.Set(ratelimit.HeaderRetryAfter, strconv.Itoa(retryAfter))
		h.fail(resp, &DeliveryError{
			Status:  http.StatusTooManyRequests,
			Class:   ErrorClassRateLimit,
			Message: fmt.Sprintf("rate limit exceeded, retry in %ds", retryAfter),
			Err:     ErrRateLimited,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.StoreTimeout)
	defer cancel()

	// Step 3: Authoritative freshness, independent of cache state
	md, err := h.store.Metadata(ctx, id)
	if err != nil {
		h.fail(resp, classifyStoreError("fetch metadata", err))
		return
	}
	etag := ETag(id, md.UpdatedAt)

	// Step 4: Cache lookup. An entry generated for another version is stale.
	var entry *cache.CacheEntry
	noCache := wantsNoCache(r)
	if !noCache {
		if e, ok := h.scripts.Get(id); ok {
			if e.ETag == etag {
				entry = e
			} else {
				resp.log.Debug().
					Str("cached_etag", e.ETag).
					Str("etag", etag).
					Msg("Cached script belongs to an older version")
			}
		}
	}
	resp.cache = CacheMiss
	if entry != nil {
		resp.cache = CacheHit
	}

	// Step 5: Conditional request
	if Matches(r.Header.Get("If-None-Match"), etag) {
		h.notModified(resp, etag)
		return
	}

	if entry != nil {
		h.ok(resp, etag, entry.Script)
		return
	}

	// Step 6: Miss path
	value, derr := h.load(ctx, id)
	if derr != nil {
		h.fail(resp, derr)
		return
	}

	resp.log.Debug().
		Bool("active", value.IsActive).
		Bool("nocache", noCache).
		Str("etag", value.ETag).
		Msg("Generated banner script")

	h.ok(resp, value.ETag, value.Script)
}

// load fetches the configuration and generates the script, optionally
// sharing the work between concurrent misses.
func (h *Handler) load(ctx context.Context, id string) (cache.Value, *DeliveryError) {
	if !h.config.CoalesceMisses {
		return h.generate(ctx, id)
	}

	// The flight is detached from the caller that started it; every caller
	// waits on its own context instead.
	ch := h.group.DoChan(id, func() (v interface{}, err error) {
		// DoChan re-panics on a goroutine nobody can recover
		defer func() {
			if p := recover(); p != nil {
				err = &DeliveryError{
					Status:  http.StatusInternalServerError,
					Class:   ErrorClassInternal,
					Message: "banner temporarily unavailable",
					Err:     fmt.Errorf("panic: %v", p),
				}
			}
		}()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.StoreTimeout)
		defer cancel()

		value, derr := h.generate(fctx, id)
		if derr != nil {
			return nil, derr
		}
		return value, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return cache.Value{}, classifyStoreError("wait for shared fetch", ctx.Err())
	}

	if res.Shared {
		coalescedTotal.Inc()
	}
	if res.Err != nil {
		var derr *DeliveryError
		if errors.As(res.Err, &derr) {
			return cache.Value{}, derr
		}
		return cache.Value{}, &DeliveryError{
			Status:  http.StatusInternalServerError,
			Class:   ErrorClassInternal,
			Message: "banner temporarily unavailable",
			Err:     res.Err,
		}
	}
	return res.Val.(cache.Value), nil
}

// generate is the cache miss path: fetch config, render, populate cache.
// A config that fails to render is never cached.
func (h *Handler) generate(ctx context.Context, id string) (cache.Value, *DeliveryError) {
	rec, err := h.store.Fetch(ctx, id)
	if err != nil {
		return cache.Value{}, classifyStoreError("fetch config", err)
	}

	value := cache.Value{
		IsActive: rec.IsActive,
		ETag:     ETag(id, rec.UpdatedAt),
	}

	if !rec.IsActive {
		value.Script = banner.InactiveScript(id)
		h.scripts.Set(id, value, h.config.InactiveCacheTTL)
		return value, nil
	}

	cfg, err := banner.DecodeConfig(rec.Config)
	if err == nil {
		value.Script, err = h.generator.Generate(id, cfg)
	}
	if err != nil {
		generationErrorsTotal.Inc()
		return cache.Value{}, &DeliveryError{
			Status:  http.StatusInternalServerError,
			Class:   ErrorClassGeneration,
			Message: "banner temporarily unavailable",
			Err:     err,
		}
	}

	h.scripts.Set(id, value, h.config.CacheTTL)
	return value, nil
}

func (h *Handler) ok(resp *response, etag, script string) {
	hdr := resp.w.Header()
	hdr.Set("ETag", etag)
	hdr.Set("Cache-Control", CacheControl(h.config.MaxAge, h.config.StaleWhileRevalidate))
	hdr.Set(HeaderCache, resp.cache)
	resp.write(http.StatusOK, script)
}

func (h *Handler) notModified(resp *response, etag string) {
	notModifiedTotal.Inc()

	hdr := resp.w.Header()
	hdr.Set("ETag", etag)
	hdr.Set("Cache-Control", CacheControl(h.config.MaxAge, h.config.StaleWhileRevalidate))
	hdr.Set(HeaderCache, resp.cache)
	resp.write(http.StatusNotModified, "")
}

// fail answers with a stub script. It never emits an error page because the
// response is executed by a <script> tag on a third-party site.
func (h *Handler) fail(resp *response, derr *DeliveryError) {
	if resp.written {
		return
	}
	errorsTotal.WithLabelValues(string(derr.Class)).Inc()

	var event *zerolog.Event
	switch derr.Class {
	case ErrorClassUpstream, ErrorClassGeneration, ErrorClassInternal:
		event = resp.log.Error()
	case ErrorClassNotFound:
		event = resp.log.Info()
	default:
		event = resp.log.Debug()
	}
	event.
		Err(derr.Err).
		Int("status", derr.Status).
		Str("error_class", string(derr.Class)).
		Msg(derr.Message)

	hdr := resp.w.Header()
	hdr.Del("ETag")
	hdr.Set("Content-Type", ContentTypeJavaScript)
	hdr.Set("Cache-Control", "no-store")
	resp.write(derr.Status, banner.NoopScript(derr.consoleLevel(), derr.Message))
}
