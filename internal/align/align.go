// Package align provides alignment arithmetic shared by the pool and
// source packages.
package align

// Up rounds n up to the next multiple of align. align must be a power of
// two.
func Up(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// IsAligned reports whether addr is a multiple of align. align must be a
// power of two.
func IsAligned(addr uintptr, align int) bool {
	return addr&uintptr(align-1) == 0
}
