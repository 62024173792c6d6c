// Package pool provides a small generic object pool, adapted from bifrost's
// core/pool, used to reuse the byte buffers the SSE writer encodes each
// streamed frame into instead of allocating a fresh one per frame.
package pool

import "sync"

// Pool is a generic, type-safe wrapper around sync.Pool.
type Pool[T any] struct {
	sp sync.Pool
}

// New creates a Pool whose factory produces zero-value *T on a miss.
func New[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		sp: sync.Pool{
			New: func() interface{} { return factory() },
		},
	}
}

// Get acquires an object from the pool, creating one via the factory if the
// pool is empty.
func (p *Pool[T]) Get() *T {
	return p.sp.Get().(*T)
}

// Put returns an object to the pool. The caller must reset the object's
// fields before calling Put.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.sp.Put(obj)
}

// Prewarm creates n objects via the factory and places them in the pool,
// avoiding allocation spikes on the first few requests after startup.
func (p *Pool[T]) Prewarm(n int) {
	for i := 0; i < n; i++ {
		p.sp.Put(p.sp.New())
	}
}
