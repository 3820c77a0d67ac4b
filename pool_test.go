package html2pdf

// Notes:
// - Pool invariants are checked through the public counters: Available()
//   plus InUse() must always equal Capacity().
// - Contention tests use fake engines that flag overlapping use, so a
//   handle handed out twice shows up as overlap.
// - AcquireWithRetry timing is asserted loosely (lower bounds only) to stay
//   stable on loaded CI machines.

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestResolvePoolSize - Sizing
// ---------------------------------------------------------------------------

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"explicit takes priority", 4, 4},
		{"explicit=1 for sequential", 1, 1},
		{"explicit can exceed max", MaxPoolSize + 10, MaxPoolSize + 10},
		{"zero uses GOMAXPROCS", 0, min(max(gomaxprocs, MinPoolSize), MaxPoolSize)},
		{"negative uses GOMAXPROCS", -3, min(max(gomaxprocs, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.n); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewPool - Construction
// ---------------------------------------------------------------------------

func TestNewPool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{"explicit capacity", 3, 3},
		{"zero raised to one", 0, 1},
		{"negative raised to one", -2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fleet := newFakeFleet(nil)
			p := NewPool(tt.capacity, fleet.factory)
			defer p.Close()

			if p.Capacity() != tt.want {
				t.Errorf("Capacity() = %d, want %d", p.Capacity(), tt.want)
			}
			if p.Available() != tt.want {
				t.Errorf("Available() = %d, want %d", p.Available(), tt.want)
			}
			if len(fleet.engines) != tt.want {
				t.Errorf("factory called %d times, want %d", len(fleet.engines), tt.want)
			}
		})
	}
}

func TestNewPool_RejectsBadFactory(t *testing.T) {
	t.Parallel()

	shared := &fakeEngine{}

	tests := []struct {
		name    string
		factory EngineFactory
		want    string
	}{
		{"same engine twice", func() Engine { return shared }, "same engine twice"},
		{"nil engine", func() Engine { return nil }, "nil engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("NewPool() did not panic")
				}
				if msg, _ := r.(string); !strings.Contains(msg, tt.want) {
					t.Errorf("panic = %v, want message containing %q", r, tt.want)
				}
			}()
			NewPool(2, tt.factory)
		})
	}
}

// ---------------------------------------------------------------------------
// TestPool_AcquireRelease - Basic Lifecycle
// ---------------------------------------------------------------------------

func TestPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	p := NewPool(2, newFakeFleet(nil).factory)
	defer p.Close()
	ctx := context.Background()

	e1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	e2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if e1 == e2 {
		t.Fatal("same engine handed out twice")
	}
	if p.Available() != 0 || p.InUse() != 2 {
		t.Errorf("Available()=%d InUse()=%d, want 0 and 2", p.Available(), p.InUse())
	}

	if err := p.Release(e1); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if p.Available() != 1 || p.InUse() != 1 {
		t.Errorf("Available()=%d InUse()=%d, want 1 and 1", p.Available(), p.InUse())
	}

	e3, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if e3 != e1 {
		t.Error("released engine should be reused")
	}
}

func TestPool_Release_Misuse(t *testing.T) {
	t.Parallel()

	t.Run("foreign engine", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()

		err := p.Release(&fakeEngine{})
		if !errors.Is(err, ErrForeignHandle) {
			t.Errorf("Release(foreign) = %v, want ErrForeignHandle", err)
		}
		if p.Available() != 1 {
			t.Errorf("Available() = %d, want 1 (unchanged)", p.Available())
		}
	})

	t.Run("double release", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()

		e, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Release(e); err != nil {
			t.Fatal(err)
		}
		if err := p.Release(e); !errors.Is(err, ErrDoubleRelease) {
			t.Errorf("second Release() = %v, want ErrDoubleRelease", err)
		}
		if p.Available() != 1 {
			t.Errorf("Available() = %d, want 1 (no permit minted)", p.Available())
		}
	})

	t.Run("release of never-acquired engine", func(t *testing.T) {
		t.Parallel()

		fleet := newFakeFleet(nil)
		p := NewPool(1, fleet.factory)
		defer p.Close()

		if err := p.Release(fleet.engines[0]); !errors.Is(err, ErrDoubleRelease) {
			t.Errorf("Release(idle) = %v, want ErrDoubleRelease", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestPool_Acquire_Blocking - Waiting Without Polling
// ---------------------------------------------------------------------------

func TestPool_Acquire_BlocksUntilRelease(t *testing.T) {
	t.Parallel()

	p := NewPool(1, newFakeFleet(nil).factory)
	defer p.Close()

	e, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan Engine, 1)
	go func() {
		waiter, err := p.Acquire(context.Background())
		if err != nil {
			t.Errorf("waiting Acquire() error = %v", err)
		}
		got <- waiter
	}()

	select {
	case <-got:
		t.Fatal("Acquire returned while the only engine was checked out")
	case <-time.After(50 * time.Millisecond):
	}

	if err := p.Release(e); err != nil {
		t.Fatal(err)
	}

	select {
	case waiter := <-got:
		if waiter != e {
			t.Error("waiter should receive the released engine")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken by Release")
	}
}

func TestPool_Acquire_ContextCanceled(t *testing.T) {
	t.Parallel()

	p := NewPool(1, newFakeFleet(nil).factory)
	defer p.Close()

	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() = %v, want DeadlineExceeded", err)
	}
	if p.Available()+p.InUse() != p.Capacity() {
		t.Errorf("invariant broken: available %d + in use %d != %d", p.Available(), p.InUse(), p.Capacity())
	}
}

// ---------------------------------------------------------------------------
// TestPool_AcquireWithRetry - Bounded Retry
// ---------------------------------------------------------------------------

func TestPool_AcquireWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("free engine on first attempt", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()

		e, err := p.AcquireWithRetry(context.Background(), 3, 10*time.Millisecond)
		if err != nil || e == nil {
			t.Fatalf("AcquireWithRetry() = %v, %v", e, err)
		}
	})

	t.Run("exhausted budget returns ErrPoolTimeout", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()
		if _, err := p.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}

		start := time.Now()
		_, err := p.AcquireWithRetry(context.Background(), 3, 20*time.Millisecond)
		if !errors.Is(err, ErrPoolTimeout) {
			t.Fatalf("AcquireWithRetry() = %v, want ErrPoolTimeout", err)
		}
		if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
			t.Errorf("returned after %v, want at least 3 x 20ms", elapsed)
		}
	})

	t.Run("release during retries succeeds", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()
		held, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		time.AfterFunc(30*time.Millisecond, func() { _ = p.Release(held) })

		e, err := p.AcquireWithRetry(context.Background(), 8, 20*time.Millisecond)
		if err != nil {
			t.Fatalf("AcquireWithRetry() = %v", err)
		}
		if e != held {
			t.Error("should receive the released engine")
		}
	})

	t.Run("caller cancellation returned as is", func(t *testing.T) {
		t.Parallel()

		p := NewPool(1, newFakeFleet(nil).factory)
		defer p.Close()
		if _, err := p.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		_, err := p.AcquireWithRetry(ctx, 100, 50*time.Millisecond)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("AcquireWithRetry() = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrPoolTimeout) {
			t.Error("cancellation must not be reported as ErrPoolTimeout")
		}
	})
}

// ---------------------------------------------------------------------------
// TestPool_Contention - Capacity Invariant Under Load
// ---------------------------------------------------------------------------

func TestPool_Contention(t *testing.T) {
	t.Parallel()

	const (
		capacity   = 4
		goroutines = 32
		rounds     = 50
	)

	fleet := newFakeFleet(func(e *fakeEngine) { e.delay = 100 * time.Microsecond })
	p := NewPool(capacity, fleet.factory)
	defer p.Close()

	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range rounds {
				e, err := p.Acquire(context.Background())
				if err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				_, _ = e.Render(context.Background(), "", nil)
				if err := p.Release(e); err != nil {
					t.Errorf("Release() error = %v", err)
					return
				}
			}
		})
	}
	wg.Wait()

	if fleet.anyOverlap() {
		t.Error("an engine was used by two goroutines at once")
	}
	if peak := fleet.peak.Load(); peak > capacity {
		t.Errorf("peak concurrent renders = %d, want <= %d", peak, capacity)
	}
	if p.Available() != capacity || p.InUse() != 0 {
		t.Errorf("after load: Available()=%d InUse()=%d, want %d and 0", p.Available(), p.InUse(), capacity)
	}
	if got := fleet.totalRenders(); got != goroutines*rounds {
		t.Errorf("total renders = %d, want %d", got, goroutines*rounds)
	}
}

// ---------------------------------------------------------------------------
// TestPool_Close - Teardown
// ---------------------------------------------------------------------------

func TestPool_Close(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet(nil)
	p := NewPool(3, fleet.factory)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	for i, e := range fleet.engines {
		if n := e.closes.Load(); n != 1 {
			t.Errorf("engine %d closed %d times, want 1", i, n)
		}
	}

	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close = %v, want ErrPoolClosed", err)
	}
}

type failingCloseEngine struct {
	fakeEngine
	err error
}

func (e *failingCloseEngine) Close() error { return e.err }

func TestPool_Close_JoinsErrors(t *testing.T) {
	t.Parallel()

	errA := errors.New("close a")
	errB := errors.New("close b")
	errs := []error{errA, errB}
	i := 0

	p := NewPool(2, func() Engine {
		e := &failingCloseEngine{err: errs[i]}
		i++
		return e
	})

	err := p.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Close() = %v, want both errors joined", err)
	}
}
