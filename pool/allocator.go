package pool

import "unsafe"

// Allocator is a lightweight, copyable handle to a shared Pool, sized to
// element type T. It satisfies the container allocator contract: Allocate
// and Deallocate by element count, rebinding to a sibling element type, and
// equality by pool identity.
//
// Handles created from one another via Rebind or Clone share a single Pool.
// The pool is destroyed when the last handle referencing it is closed, so
// two handles of the same type are interchangeable only when Equal reports
// true; equality is never implied by the type alone.
type Allocator[T any] struct {
	pool *Pool
}

// NewAllocator creates a root handle with a fresh Pool sized to T. cfg may
// be nil; see Config.
func NewAllocator[T any](cfg *Config) (Allocator[T], error) {
	p, err := New(chunkSizeOf[T](), cfg)
	if err != nil {
		return Allocator[T]{}, err
	}
	p.retain()
	return Allocator[T]{pool: p}, nil
}

// Rebind derives a handle for element type U sharing a's Pool, resizing the
// pool's chunk size to U. This is how a container allocates internal
// bookkeeping nodes from the same pool as its elements.
//
// The resize follows Pool.Rebind rules: it panics with ErrRebindAfterUse if
// the pool has already produced a chunk, which signals a container that
// used its element allocator before finishing internal setup.
func Rebind[U, T any](a Allocator[T]) Allocator[U] {
	a.pool.Rebind(chunkSizeOf[U]())
	a.pool.retain()
	return Allocator[U]{pool: a.pool}
}

// Allocate returns storage for n contiguous elements of type T.
//
// A single element comes from the pool's free list. For n > 1 the pool is
// bypassed entirely and the run comes from the general heap, since the free
// list cannot guarantee physically contiguous multi-chunk spans; the run is
// pinned until the matching Deallocate.
func (a Allocator[T]) Allocate(n int) (*T, error) {
	switch {
	case n <= 0:
		return nil, ErrBadCount
	case n == 1:
		ptr, err := a.pool.AcquireChunk()
		if err != nil {
			return nil, err
		}
		return (*T)(ptr), nil
	default:
		if a.pool.closed {
			return nil, ErrPoolClosed
		}
		run := make([]T, n)
		ptr := unsafe.Pointer(&run[0])
		a.pool.pinRun(ptr, run)
		return (*T)(ptr), nil
	}
}

// Deallocate returns storage obtained from Allocate. n must match the count
// passed at allocation time; a mismatch is undefined behavior. Passing nil
// is a no-op.
func (a Allocator[T]) Deallocate(p *T, n int) {
	if p == nil || n <= 0 {
		return
	}
	if n == 1 {
		a.pool.ReleaseChunk(unsafe.Pointer(p))
		return
	}
	a.pool.unpinRun(unsafe.Pointer(p))
}

// Equal reports whether both handles reference the same Pool. Containers
// use this to detect when a move or swap can skip per-element transfer.
func (a Allocator[T]) Equal(b Allocator[T]) bool { return a.pool == b.pool }

// SamePool reports pool identity across handles of different element types.
func SamePool[T, U any](a Allocator[T], b Allocator[U]) bool { return a.pool == b.pool }

// Clone returns a new handle sharing the Pool, extending its lifetime until
// the clone is closed.
func (a Allocator[T]) Clone() Allocator[T] {
	a.pool.retain()
	return a
}

// Close drops this handle's reference. When the last handle is closed the
// Pool releases every block it owns back to its Source. Closing the same
// handle twice is a caller bug; outstanding allocations dangle once the
// pool is destroyed.
func (a Allocator[T]) Close() {
	if a.pool != nil {
		a.pool.release()
	}
}

// ChunkSize returns the shared pool's active chunk size.
func (a Allocator[T]) ChunkSize() int { return a.pool.ChunkSize() }

// Stats returns the shared pool's counters.
func (a Allocator[T]) Stats() Stats { return a.pool.Stats() }

// chunkSizeOf returns the pool chunk size for element type T. Zero-sized
// types are bumped to one byte so every chunk has a distinct address.
func chunkSizeOf[T any]() int {
	size := int(unsafe.Sizeof(*new(T)))
	if size == 0 {
		size = 1
	}
	return size
}
