package ratelimit

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/banner-delivery/internal/testutil"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *testutil.Clock) {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	clock := testutil.NewClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewLimiter(cfg, logger, WithClock(clock.Now)), clock
}

func TestNewLimiter_Defaults(t *testing.T) {
	l, _ := newTestLimiter(t, Config{})

	cfg := l.Config()
	if cfg.Window != DefaultWindow {
		t.Errorf("Window = %v, want %v", cfg.Window, DefaultWindow)
	}
	if cfg.MaxRequests != DefaultMaxRequests {
		t.Errorf("MaxRequests = %d, want %d", cfg.MaxRequests, DefaultMaxRequests)
	}
}

func TestLimiter_FirstRequest(t *testing.T) {
	l, clock := newTestLimiter(t, Config{Window: time.Minute, MaxRequests: 10})

	d := l.Check("203.0.113.7")
	if !d.Allowed {
		t.Fatal("first request rejected")
	}
	if d.Remaining != 9 {
		t.Errorf("Remaining = %d, want 9", d.Remaining)
	}
	if want := clock.Now().Add(time.Minute); !d.ResetTime.Equal(want) {
		t.Errorf("ResetTime = %v, want %v", d.ResetTime, want)
	}
	if d.Limit != 10 {
		t.Errorf("Limit = %d, want 10", d.Limit)
	}
}

// TestLimiter_WindowBoundary checks that exactly MaxRequests calls are
// admitted per window and that a new window starts once it ends.
func TestLimiter_WindowBoundary(t *testing.T) {
	const max = 5
	l, clock := newTestLimiter(t, Config{Window: time.Minute, MaxRequests: max})
	start := clock.Now()

	for i := 1; i <= max; i++ {
		d := l.Check("client")
		if !d.Allowed {
			t.Fatalf("request %d rejected, want allowed", i)
		}
		if d.Remaining != max-i {
			t.Errorf("request %d: Remaining = %d, want %d", i, d.Remaining, max-i)
		}
		clock.Advance(time.Second)
	}

	d := l.Check("client")
	if d.Allowed {
		t.Fatalf("request %d allowed, want rejected", max+1)
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
	if want := start.Add(time.Minute); !d.ResetTime.Equal(want) {
		t.Errorf("ResetTime = %v, want %v (window start + duration)", d.ResetTime, want)
	}

	// Further requests in the same window stay rejected
	if l.Check("client").Allowed {
		t.Error("request after rejection allowed in same window")
	}

	// Move to the window end
	clock.Advance(start.Add(time.Minute).Sub(clock.Now()))

	d = l.Check("client")
	if !d.Allowed {
		t.Fatal("request in new window rejected")
	}
	if d.Remaining != max-1 {
		t.Errorf("new window Remaining = %d, want %d", d.Remaining, max-1)
	}
	if want := clock.Now().Add(time.Minute); !d.ResetTime.Equal(want) {
		t.Errorf("new window ResetTime = %v, want %v", d.ResetTime, want)
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Window: time.Minute, MaxRequests: 1})

	if !l.Check("a").Allowed {
		t.Fatal("client a first request rejected")
	}
	if l.Check("a").Allowed {
		t.Error("client a second request allowed")
	}
	if !l.Check("b").Allowed {
		t.Error("client b rejected because of client a")
	}
}

func TestLimiter_ConcurrentChecks(t *testing.T) {
	const max = 100
	l, _ := newTestLimiter(t, Config{Window: time.Minute, MaxRequests: max})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != max {
		t.Errorf("allowed = %d, want exactly %d", allowed, max)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(t, Config{Window: time.Minute, MaxRequests: 10})

	l.Check("old")
	clock.Advance(30 * time.Second)
	l.Check("new")
	clock.Advance(40 * time.Second)

	if removed := l.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}

	// The surviving window keeps its count
	d := l.Check("new")
	if d.Remaining != 8 {
		t.Errorf("Remaining after sweep = %d, want 8", d.Remaining)
	}
}

func TestLimiter_MaybeSweep(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	clock := testutil.NewClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(Config{Window: time.Minute, MaxRequests: 10}, logger,
		WithClock(clock.Now),
		WithRand(func() float64 { return 0.5 }),
	)

	l.Check("client")
	clock.Advance(2 * time.Minute)

	if l.MaybeSweep(0.1) {
		t.Error("MaybeSweep(0.1) ran with roll 0.5")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	if !l.MaybeSweep(0.9) {
		t.Error("MaybeSweep(0.9) skipped with roll 0.5")
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}
