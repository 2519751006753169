// Package source provides block Source implementations for the pool
// package: plain heap blocks, cache-line-aligned blocks, and huge-page
// backed blocks.
//
// All sources hand the pool an opaque []byte of at least the requested
// size; the pool never cares where the bytes came from. Pick Aligned when
// chunk starting addresses should fall on cache-line boundaries, and
// HugePage when the backing blocks are large enough (multi-megabyte) to
// benefit from fewer TLB entries. Heap is the default and is what the pool
// uses when no Source is configured.
package source
