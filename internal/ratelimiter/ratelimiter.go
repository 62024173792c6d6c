// Package ratelimiter implements the per-identifier fixed-window request
// limiter described in spec.md §4.1: it gates every incoming request before
// the rest of the pipeline runs.
package ratelimiter

import (
	"container/list"
	"sync"
	"time"

	"github.com/nlweb/query-core/pkg/config"
)

// DefaultMaxIdentifiers bounds the number of tracked buckets. Design Notes
// in spec.md §9 call for a bounded map (LRU or sharded expiry) in place of
// the unbounded concurrent map the original design used; this implements
// the LRU option. When an identifier is evicted, its next Allow call starts
// a fresh bucket — an accepted, documented loss of budget for that
// identifier (spec.md §4.1 "Failure").
const DefaultMaxIdentifiers = 50_000

// bucket is a single identifier's fixed-window counter. Mutations are
// serialized by its own mutex so that interleavings across identifiers
// never contend with each other (spec.md §5).
type bucket struct {
	mu          sync.Mutex
	requests    int
	windowStart time.Time
}

// Status reports a bucket's state without consuming a token.
type Status struct {
	Allowed  bool
	Remaining int // -1 means unbounded (limiter disabled)
	ResetIn   time.Duration
	Total     int // -1 means unbounded (limiter disabled)
}

// RateLimiter is a concurrent, per-identifier fixed-window token counter.
type RateLimiter struct {
	cfg        config.RateLimitingConfig
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex // protects ll and index only; bucket fields use bucket.mu
	ll    *list.List
	index map[string]*list.Element
}

type lruEntry struct {
	key string
	b   *bucket
}

// New creates a RateLimiter from the given configuration.
func New(cfg config.RateLimitingConfig) *RateLimiter {
	return &RateLimiter{
		cfg:        cfg,
		maxEntries: DefaultMaxIdentifiers,
		now:        time.Now,
		ll:         list.New(),
		index:      make(map[string]*list.Element),
	}
}

// windowSize returns the configured window as a time.Duration.
func (rl *RateLimiter) windowSize() time.Duration {
	minutes := rl.cfg.WindowSizeInMinutes
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// Allow atomically consumes one token for identifier if available in the
// current window, returning true iff consumed. When the limiter is
// disabled, Allow always returns true and consumes nothing.
func (rl *RateLimiter) Allow(identifier string) bool {
	if !rl.cfg.Enabled {
		return true
	}

	b := rl.getOrCreate(identifier)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	window := rl.windowSize()
	if now.Sub(b.windowStart) >= window {
		b.requests = 0
		b.windowStart = now
	}
	if b.requests < rl.cfg.RequestsPerWindow {
		b.requests++
		return true
	}
	return false
}

// Status reports identifier's current budget without consuming a token.
func (rl *RateLimiter) Status(identifier string) Status {
	if !rl.cfg.Enabled {
		return Status{Allowed: true, Remaining: -1, ResetIn: 0, Total: -1}
	}

	b := rl.getOrCreate(identifier)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	window := rl.windowSize()
	elapsed := now.Sub(b.windowStart)

	remaining := rl.cfg.RequestsPerWindow - b.requests
	resetIn := window - elapsed
	if elapsed >= window {
		// The window has already elapsed; the next Allow call will reset it.
		remaining = rl.cfg.RequestsPerWindow
		resetIn = 0
	}
	if resetIn < 0 {
		resetIn = 0
	}
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetIn:   resetIn,
		Total:     rl.cfg.RequestsPerWindow,
	}
}

// getOrCreate returns identifier's bucket, creating a fresh one if absent,
// and marks it most-recently-used. Map structure access is serialized by
// rl.mu; bucket field access is serialized separately by bucket.mu, so a
// concurrent Allow/Status on a *different* identifier never blocks on this
// lock for longer than a map/list operation.
func (rl *RateLimiter) getOrCreate(identifier string) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if el, ok := rl.index[identifier]; ok {
		rl.ll.MoveToFront(el)
		return el.Value.(*lruEntry).b
	}

	b := &bucket{windowStart: rl.now()}
	el := rl.ll.PushFront(&lruEntry{key: identifier, b: b})
	rl.index[identifier] = el

	if rl.ll.Len() > rl.maxEntries {
		oldest := rl.ll.Back()
		if oldest != nil {
			rl.ll.Remove(oldest)
			delete(rl.index, oldest.Value.(*lruEntry).key)
		}
	}

	return b
}
