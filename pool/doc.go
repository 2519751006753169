// Package pool provides a fixed-size chunk pool allocator backed by
// pre-reserved blocks of memory.
//
// # Overview
//
// A Pool hands out equally-sized chunks carved from larger blocks acquired
// from a Source. Freed chunks go onto a LIFO free list and are reused before
// any new block is acquired, so steady-state allocation and release are O(1)
// with no interaction with the Go heap. Blocks are never returned to the
// Source individually; they live until the pool itself is destroyed.
//
// # Core Types
//
//   - Pool: free list plus owned block set at a single active chunk size
//   - Source: provider of raw backing blocks (see the source package for
//     heap, cache-aligned, and huge-page implementations)
//   - Allocator[T]: a copyable, container-facing handle sharing one Pool
//
// # Usage Example
//
//	a, err := pool.NewAllocator[int64](nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	p, err := a.Allocate(1)
//	if err != nil {
//	    return err
//	}
//	*p = 42
//	a.Deallocate(p, 1)
//
// # Rebinding
//
// A container that needs to allocate internal bookkeeping nodes of a
// different type than its element type derives a sibling handle with Rebind:
//
//	nodes := pool.Rebind[listNode](elems)
//
// Both handles share the same Pool. Rebind changes the pool's chunk size and
// is only legal while the pool has never produced a chunk; rebinding a pool
// that has already allocated panics with ErrRebindAfterUse, since chunks
// handed out under the old size would be corrupted by the new partitioning.
//
// # Block Partitioning
//
// A block of BlockSize bytes yields floor(usable/chunkSize) chunks, where
// usable is BlockSize when it divides evenly by the chunk size and
// BlockSize-chunkSize otherwise. The trailing remainder is discarded so that
// every chunk on the free list is exactly chunkSize bytes, never shorter.
//
// # Caller Obligations
//
// Releasing an address that did not come from the pool, or releasing the
// same address twice, is undefined behavior; the release path performs no
// validation. Deallocate must be passed the same count used at
// Allocate. Element types containing Go pointers must not rely on
// pool-backed storage to keep their referents alive: chunk memory is plain
// bytes and the garbage collector does not scan it.
//
// # Thread Safety
//
// A Pool and every handle sharing it are single-owner, single-thread.
// Concurrent use requires external synchronization or one pool per
// goroutine.
package pool
