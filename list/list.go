// Package list provides a doubly linked list whose nodes are allocated
// from a pool.Allocator rather than the Go heap.
//
// New takes a handle sized to the element type and immediately rebinds it
// to the list's internal node type, the same pattern node-based containers
// use to derive a bookkeeping allocator from a value allocator. Because the
// rebind happens before any allocation, it always finds the shared pool in
// its empty state.
//
// Element types containing Go pointers must not rely on node storage to
// keep their referents alive; node memory is pool-backed bytes that the
// garbage collector does not scan.
package list

import "github.com/joshuapare/poolkit/pool"

// node is the internal doubly linked node. Nodes live in pool chunks, never
// on the Go heap.
type node[T any] struct {
	next, prev *node[T]
	val        T
}

// List is a doubly linked list over pool-allocated nodes. The zero value is
// not usable; construct with New.
type List[T any] struct {
	alloc pool.Allocator[node[T]]
	root  node[T] // sentinel; root.next is front, root.prev is back
	len   int
}

// New builds an empty list that allocates its nodes from the pool behind
// elems. The handle is rebound to the node type, so elems must not have
// been used for allocation yet; see pool.Rebind.
func New[T any](elems pool.Allocator[T]) *List[T] {
	l := &List[T]{alloc: pool.Rebind[node[T]](elems)}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Len returns the number of elements.
func (l *List[T]) Len() int { return l.len }

// PushBack appends v.
func (l *List[T]) PushBack(v T) error {
	return l.insert(v, l.root.prev, &l.root)
}

// PushFront prepends v.
func (l *List[T]) PushFront(v T) error {
	return l.insert(v, &l.root, l.root.next)
}

func (l *List[T]) insert(v T, prev, next *node[T]) error {
	n, err := l.alloc.Allocate(1)
	if err != nil {
		return err
	}
	*n = node[T]{next: next, prev: prev, val: v}
	prev.next = n
	next.prev = n
	l.len++
	return nil
}

// Front returns the first element without removing it.
func (l *List[T]) Front() (T, bool) {
	if l.len == 0 {
		var zero T
		return zero, false
	}
	return l.root.next.val, true
}

// Back returns the last element without removing it.
func (l *List[T]) Back() (T, bool) {
	if l.len == 0 {
		var zero T
		return zero, false
	}
	return l.root.prev.val, true
}

// PopFront removes and returns the first element.
func (l *List[T]) PopFront() (T, bool) {
	if l.len == 0 {
		var zero T
		return zero, false
	}
	return l.remove(l.root.next), true
}

// PopBack removes and returns the last element.
func (l *List[T]) PopBack() (T, bool) {
	if l.len == 0 {
		var zero T
		return zero, false
	}
	return l.remove(l.root.prev), true
}

func (l *List[T]) remove(n *node[T]) T {
	n.prev.next = n.next
	n.next.prev = n.prev
	v := n.val
	l.alloc.Deallocate(n, 1)
	l.len--
	return v
}

// Close frees every remaining node and drops the list's pool handle. The
// list must not be used afterwards.
func (l *List[T]) Close() {
	for n := l.root.next; n != &l.root; {
		next := n.next
		l.alloc.Deallocate(n, 1)
		n = next
	}
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	l.alloc.Close()
}
