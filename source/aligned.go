package source

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/align"
	"github.com/joshuapare/poolkit/pool"
)

// CacheLineSize is the alignment used by Aligned when none is configured.
const CacheLineSize = 64

// Aligned acquires heap blocks whose starting address falls on an
// Alignment-byte boundary, so chunks carved at multiples of the chunk size
// start cache-line aligned when the chunk size is itself a multiple of the
// alignment.
type Aligned struct {
	// Alignment must be a power of two. 0 means CacheLineSize.
	Alignment int
}

var _ pool.Source = Aligned{}

// Acquire returns a zeroed block of size bytes starting on an aligned
// address. The block is over-allocated by one alignment unit and sliced to
// the first aligned offset.
func (a Aligned) Acquire(size int) ([]byte, error) {
	al := a.Alignment
	if al == 0 {
		al = CacheLineSize
	}
	if !align.IsPowerOfTwo(al) {
		return nil, fmt.Errorf("source: alignment %d is not a power of two", al)
	}
	raw := make([]byte, size+al)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(al-1)); rem != 0 {
		off = al - rem
	}
	return raw[off : off+size : off+size], nil
}

// Release is a no-op.
func (Aligned) Release([]byte) {}
