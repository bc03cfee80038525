// Package pool provides the bump-free, free-list-per-kind slab allocators
// backing the store's Chunk/ChunkRef/ChunkList churn, and the refcounting
// glue between them. It deliberately does not use sync.Pool: items here
// carry identity (a live ChunkRef's target Chunk must never be silently
// reclaimed by something outside this package's control), and the store is
// single-threaded anyway, so a sync.Pool's GC-driven eviction and
// cross-goroutine bookkeeping buy nothing and would make refcount
// accounting nondeterministic.
package pool

import "errors"

// ErrExhausted is returned by a FreeList when it has reached its configured
// allocation ceiling and has nothing free to hand back. It is the low-level
// signal the store package surfaces to callers as AllocFailure.
var ErrExhausted = errors.New("pool: allocation ceiling reached")

// FreeList is a slab allocator for *T: a LIFO stack of recycled values plus
// a constructor for when the stack is empty. max bounds the total number of
// live allocations (0 means unlimited); it exists so tests can exercise the
// AllocFailure path deterministically rather than needing to exhaust real
// heap memory.
type FreeList[T any] struct {
	free      []*T
	ctor      func() *T
	allocated int
	max       int
}

// NewFreeList creates a FreeList that constructs new values with ctor, never
// allocating more than max live values at once (0 = unbounded).
func NewFreeList[T any](ctor func() *T, max int) *FreeList[T] {
	return &FreeList[T]{ctor: ctor, max: max}
}

// Get returns a recycled value if one is free, otherwise constructs a new
// one, subject to the configured ceiling.
func (p *FreeList[T]) Get() (*T, error) {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		return v, nil
	}
	if p.max > 0 && p.allocated >= p.max {
		return nil, ErrExhausted
	}
	p.allocated++
	return p.ctor(), nil
}

// Put returns a value to the free list for reuse. Callers must have already
// reset the value's state.
func (p *FreeList[T]) Put(v *T) {
	p.free = append(p.free, v)
}

// Allocated returns the number of values ever constructed (live + free).
func (p *FreeList[T]) Allocated() int {
	return p.allocated
}

// Free returns the number of values currently sitting idle, ready for Get.
func (p *FreeList[T]) Free() int {
	return len(p.free)
}

// Live returns the number of values currently checked out (not on the free
// list).
func (p *FreeList[T]) Live() int {
	return p.allocated - len(p.free)
}
