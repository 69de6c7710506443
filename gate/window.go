// Package gate holds the two admission policies guarding the single
// browser resource: a sliding-window rate limiter per client identity and
// a counting permit pool shared process-wide.
package gate

import (
	"context"
	"sync"
	"time"
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed bool

	// RetryAfter is the hint returned to rejected clients. For a sliding
	// window it equals the window length.
	RetryAfter time.Duration
}

// Admitter decides whether one more request from the given identity may
// proceed right now. Implementations must be safe for concurrent use and
// must record the admission atomically with the check.
type Admitter interface {
	Allow(ctx context.Context, identity string) Decision
}

// MemoryWindow is an in-process sliding-window limiter: per identity it
// keeps the timestamps of requests inside the trailing window and admits
// while their count is below the quota.
type MemoryWindow struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	quota  int
	window time.Duration
	now    func() time.Time
}

// NewMemoryWindow creates a limiter admitting up to quota requests per
// identity within the trailing window. A background goroutine evicts
// identities whose entries have all aged out, preventing unbounded growth.
func NewMemoryWindow(quota int, window time.Duration) *MemoryWindow {
	w := &MemoryWindow{
		hits:   make(map[string][]time.Time),
		quota:  quota,
		window: window,
		now:    time.Now,
	}
	go w.evictLoop()
	return w
}

// Allow prunes entries older than the window, compares the remainder to the
// quota, and records the admission. Check and record happen under one lock.
func (w *MemoryWindow) Allow(_ context.Context, identity string) Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	kept := w.hits[identity][:0]
	for _, ts := range w.hits[identity] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= w.quota {
		w.hits[identity] = kept
		return Decision{Allowed: false, RetryAfter: w.window}
	}

	w.hits[identity] = append(kept, now)
	return Decision{Allowed: true}
}

// evictLoop drops identities with no live entries every few minutes.
func (w *MemoryWindow) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := w.now().Add(-w.window)
		w.mu.Lock()
		for id, stamps := range w.hits {
			live := false
			for _, ts := range stamps {
				if ts.After(cutoff) {
					live = true
					break
				}
			}
			if !live {
				delete(w.hits, id)
			}
		}
		w.mu.Unlock()
	}
}
