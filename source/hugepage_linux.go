//go:build linux

package source

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/poolkit/internal/align"
	"github.com/joshuapare/poolkit/pool"
)

// hugePageSize is the transparent huge page size on x86-64 and most arm64
// configurations (2 MiB).
const hugePageSize = 1 << 21

// HugePage acquires anonymous private mappings rounded up to the huge page
// size and advises the kernel to back them with transparent huge pages.
// Blocks should be at least a few megabytes for the advice to matter.
type HugePage struct{}

var _ pool.Source = HugePage{}

// Acquire maps an anonymous region of at least size bytes, rounded up to a
// huge page multiple, and applies MADV_HUGEPAGE. The advice is best-effort:
// a kernel without THP enabled still returns a usable mapping.
func (HugePage) Acquire(size int) ([]byte, error) {
	mapped := align.Up(size, hugePageSize)
	b, err := unix.Mmap(-1, 0, mapped,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("source: mmap %d bytes: %w", mapped, err)
	}
	// Best-effort; the mapping works without THP.
	_ = unix.Madvise(b, unix.MADV_HUGEPAGE)
	return b[:size:mapped], nil
}

// Release unmaps the full mapping behind block. block must be a slice
// returned by Acquire, with its capacity intact.
func (HugePage) Release(block []byte) {
	if cap(block) == 0 {
		return
	}
	_ = unix.Munmap(block[:cap(block)])
}
