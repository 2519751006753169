package pool

import "errors"

var (
	// ErrBadChunkSize indicates a zero or negative chunk size.
	ErrBadChunkSize = errors.New("pool: chunk size must be positive")

	// ErrBadConfig indicates a negative block size or reserved block count.
	ErrBadConfig = errors.New("pool: invalid config")

	// ErrChunkTooLarge indicates that no chunk of the active size fits in a
	// block, so the pool can never produce one.
	ErrChunkTooLarge = errors.New("pool: chunk size does not fit block size")

	// ErrBadCount indicates a zero or negative element count passed to Allocate.
	ErrBadCount = errors.New("pool: count must be positive")

	// ErrPoolClosed indicates use of a pool after its last handle was closed.
	ErrPoolClosed = errors.New("pool: pool is closed")

	// ErrRebindAfterUse is the panic value raised when Rebind is called on a
	// pool that has already produced a chunk. This signals a programming bug
	// in the caller, not a runtime condition, and has no recoverable error
	// return.
	ErrRebindAfterUse = errors.New("pool: rebind after first allocation")
)
