//go:build !linux

package source

import "github.com/joshuapare/poolkit/pool"

// HugePage degrades to plain heap blocks on platforms without
// MADV_HUGEPAGE support.
type HugePage struct{}

var _ pool.Source = HugePage{}

// Acquire returns a zeroed heap block of size bytes.
func (HugePage) Acquire(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Release is a no-op.
func (HugePage) Release([]byte) {}
