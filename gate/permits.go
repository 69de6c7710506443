package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// PermitPool is the counting permit pool guarding concurrent use of the
// browser session. Callers block cooperatively until a permit frees; they
// are never rejected for concurrency alone.
type PermitPool struct {
	sem      *semaphore.Weighted
	capacity int
}

// NewPermitPool creates a pool of the given capacity. Capacity must not
// exceed what the underlying browser can safely serve concurrently.
func NewPermitPool(capacity int) *PermitPool {
	return &PermitPool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a permit is available or ctx ends. The returned
// error is ctx.Err() on cancellation; no permit is held in that case.
func (p *PermitPool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a permit. Must be called exactly once per successful
// Acquire, on every exit path.
func (p *PermitPool) Release() {
	p.sem.Release(1)
}

// Capacity returns the pool size.
func (p *PermitPool) Capacity() int {
	return p.capacity
}
