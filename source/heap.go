package source

import "github.com/joshuapare/poolkit/pool"

// Heap acquires blocks from the general-purpose Go heap. Release is a
// no-op; the garbage collector reclaims blocks once the pool drops them.
type Heap struct{}

var _ pool.Source = Heap{}

// Acquire returns a zeroed block of size bytes.
func (Heap) Acquire(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Release is a no-op.
func (Heap) Release([]byte) {}
