package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one engine is available.
	MinPoolSize = 1

	// MaxPoolSize caps automatic sizing; each Chrome instance costs ~200MB.
	MaxPoolSize = 16
)

// Acquire retry defaults.
const (
	DefaultAcquireAttempts = 8
	DefaultAcquireDelay    = 200 * time.Millisecond
)

// Pool owns a fixed set of engines and hands each to one worker at a time.
// A weighted semaphore counts free engines; waiters block on it without
// polling and are woken in FIFO order by Release.
//
// At every point, free permits plus engines in use equals Capacity.
// Engines must be comparable (pointers to non-zero-size types), since the
// pool tracks them by identity.
type Pool struct {
	capacity int
	sem      *semaphore.Weighted

	mu     sync.Mutex
	all    []Engine
	owned  map[Engine]struct{}
	free   []Engine
	inUse  map[Engine]struct{}
	closed bool
}

// NewPool creates a pool of capacity engines built by factory.
// A capacity below 1 is raised to 1. A nil factory builds Chrome engines.
//
// The factory must return a distinct, non-nil engine on every call;
// NewPool panics otherwise.
func NewPool(capacity int, factory EngineFactory) *Pool {
	if capacity < MinPoolSize {
		capacity = MinPoolSize
	}
	if factory == nil {
		factory = RodEngineFactory(defaultTimeout)
	}

	p := &Pool{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
		all:      make([]Engine, 0, capacity),
		owned:    make(map[Engine]struct{}, capacity),
		free:     make([]Engine, 0, capacity),
		inUse:    make(map[Engine]struct{}, capacity),
	}
	for range capacity {
		e := factory()
		if e == nil {
			panic("html2pdf: EngineFactory returned a nil engine")
		}
		if _, dup := p.owned[e]; dup {
			panic("html2pdf: EngineFactory returned the same engine twice")
		}
		p.all = append(p.all, e)
		p.owned[e] = struct{}{}
		p.free = append(p.free, e)
	}
	return p
}

// Acquire blocks until an engine is free or ctx ends.
// Returns ErrPoolClosed once Close has been called.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.free) == 0 {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	last := len(p.free) - 1
	e := p.free[last]
	p.free[last] = nil
	p.free = p.free[:last]
	p.inUse[e] = struct{}{}
	return e, nil
}

// AcquireWithRetry makes up to attempts blocking acquisitions, each bounded
// by delay. When every attempt times out it returns an error wrapping
// ErrPoolTimeout. Cancellation of ctx is returned as is.
func (p *Pool) AcquireWithRetry(ctx context.Context, attempts int, delay time.Duration) (Engine, error) {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = DefaultAcquireDelay
	}

	for range attempts {
		attemptCtx, cancel := context.WithTimeout(ctx, delay)
		e, err := p.Acquire(attemptCtx)
		cancel()

		switch {
		case err == nil:
			return e, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case !errors.Is(err, context.DeadlineExceeded):
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %d attempts of %v", ErrPoolTimeout, attempts, delay)
}

// Release returns e to the pool and wakes one waiter.
// Releasing an engine the pool does not own, or one that is not checked out,
// is an error and leaves the permit count unchanged.
func (p *Pool) Release(e Engine) error {
	p.mu.Lock()
	if _, ok := p.owned[e]; !ok {
		p.mu.Unlock()
		return ErrForeignHandle
	}
	if _, ok := p.inUse[e]; !ok {
		p.mu.Unlock()
		return ErrDoubleRelease
	}
	delete(p.inUse, e)
	p.free = append(p.free, e)
	p.mu.Unlock()

	p.sem.Release(1)
	return nil
}

// Capacity returns the number of engines the pool owns.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Available returns the number of engines free to acquire.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// InUse returns the number of checked-out engines.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close closes every engine and rejects further acquisitions.
// Call it once no batch is running. Later calls return nil.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	engines := p.all
	p.mu.Unlock()

	var errs []error
	for _, e := range engines {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResolvePoolSize determines the pool capacity.
// Priority: explicit size > GOMAXPROCS clamped to [MinPoolSize, MaxPoolSize].
// GOMAXPROCS follows container CPU quotas when the binary imports automaxprocs.
func ResolvePoolSize(n int) int {
	if n > 0 {
		return n
	}
	return min(max(runtime.GOMAXPROCS(0), MinPoolSize), MaxPoolSize)
}
