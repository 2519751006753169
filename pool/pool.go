package pool

import (
	"fmt"
	"unsafe"
)

// DefaultBlockSize is the backing block size used when Config.BlockSize is 0.
const DefaultBlockSize = 4096

// Source provides raw backing memory for pool blocks.
//
// Acquire returns a block of at least size bytes. Release returns a block
// previously obtained from Acquire; the pool calls it once per block when
// the pool is destroyed. Implementations may over-allocate (huge-page
// sources round up to the page size) as long as the returned slice is at
// least size bytes long.
type Source interface {
	Acquire(size int) ([]byte, error)
	Release(block []byte)
}

// heapSource is the default Source when none is configured. Released blocks
// are left to the garbage collector.
type heapSource struct{}

func (heapSource) Acquire(size int) ([]byte, error) { return make([]byte, size), nil }
func (heapSource) Release([]byte)                   {}

// Config controls pool construction. The zero value (or a nil pointer) is
// valid: DefaultBlockSize blocks, no pre-warming, heap-backed blocks.
type Config struct {
	// BlockSize is the size in bytes of each backing block. 0 means
	// DefaultBlockSize.
	BlockSize int

	// ReservedBlocks is the number of blocks acquired eagerly at
	// construction, so that early allocations never touch the Source.
	ReservedBlocks int

	// Source provides backing blocks. nil means the general heap.
	Source Source
}

// Stats holds pool counters for tests and instrumentation.
type Stats struct {
	BlockAcquires int // blocks acquired from the Source
	ChunkAcquires int // chunks handed out
	ChunkReleases int // chunks returned
	WastedBytes   int // bytes discarded by block partitioning
}

// Pool maintains a LIFO free list of chunk addresses at a single active
// chunk size, refilling one block at a time from its Source. Pools are
// created through New or NewAllocator and destroyed when their reference
// count drops to zero.
type Pool struct {
	src       Source
	blockSize int
	chunkSize int

	free   []unsafe.Pointer // LIFO: most recently freed chunk on top
	blocks [][]byte         // every block ever acquired, released together

	// runs pins multi-element allocations that bypass the pool, keyed by
	// their base address, so the garbage collector keeps them alive until
	// Deallocate.
	runs map[unsafe.Pointer]any

	refs   int
	closed bool
	stats  Stats
}

// New creates a pool serving chunks of chunkSize bytes. cfg may be nil.
//
// When cfg.ReservedBlocks is positive the blocks are acquired up front, so
// the first ReservedBlocks × chunks-per-block acquisitions never touch the
// Source.
func New(chunkSize int, cfg *Config) (*Pool, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadChunkSize, chunkSize)
	}
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.BlockSize < 0 || c.ReservedBlocks < 0 {
		return nil, fmt.Errorf("%w: block size %d, reserved blocks %d",
			ErrBadConfig, c.BlockSize, c.ReservedBlocks)
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Source == nil {
		c.Source = heapSource{}
	}
	p := &Pool{
		src:       c.Source,
		blockSize: c.BlockSize,
		chunkSize: chunkSize,
	}
	for i := 0; i < c.ReservedBlocks; i++ {
		if err := p.refill(); err != nil {
			p.destroy()
			return nil, err
		}
	}
	return p, nil
}

// Partition reports how a block of blockSize bytes is carved into chunks of
// chunkSize bytes: the number of chunks produced and the bytes discarded.
//
// The usable span is blockSize when it divides evenly by chunkSize and
// blockSize-chunkSize otherwise, so no chunk is ever shorter than chunkSize.
func Partition(blockSize, chunkSize int) (chunks, wasted int, err error) {
	if chunkSize <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrBadChunkSize, chunkSize)
	}
	usable := blockSize
	if blockSize%chunkSize != 0 {
		usable = blockSize - chunkSize
	}
	chunks = usable / chunkSize
	if chunks <= 0 {
		return 0, 0, fmt.Errorf("%w: chunk %d, block %d",
			ErrChunkTooLarge, chunkSize, blockSize)
	}
	return chunks, blockSize - chunks*chunkSize, nil
}

// AcquireChunk pops the most recently freed chunk address, acquiring and
// partitioning one new block from the Source if the free list is empty.
func (p *Pool) AcquireChunk() (unsafe.Pointer, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}
	if len(p.free) == 0 {
		if err := p.refill(); err != nil {
			return nil, err
		}
	}
	n := len(p.free) - 1
	ptr := p.free[n]
	p.free[n] = nil
	p.free = p.free[:n]
	p.stats.ChunkAcquires++
	return ptr, nil
}

// ReleaseChunk pushes addr back onto the free list.
//
// No validation is performed: releasing an address that did not come from
// this pool, or releasing the same address twice, is undefined behavior.
func (p *Pool) ReleaseChunk(addr unsafe.Pointer) {
	if p.closed {
		return
	}
	p.free = append(p.free, addr)
	p.stats.ChunkReleases++
}

// Rebind changes the pool's chunk size going forward.
//
// Rebind is only legal while the pool is empty: no chunk ever produced and
// no block ever acquired. Once either has happened the chunk size is frozen
// and Rebind panics with ErrRebindAfterUse, because chunks already handed
// out under the old size would be invalidated by repartitioning. A
// non-positive size panics with ErrBadChunkSize.
func (p *Pool) Rebind(newSize int) {
	if newSize <= 0 {
		panic(ErrBadChunkSize)
	}
	if len(p.free) != 0 || len(p.blocks) != 0 {
		panic(ErrRebindAfterUse)
	}
	p.chunkSize = newSize
}

// Close destroys a pool that is used directly, without Allocator handles,
// returning every block to the Source. Pools owned by handles are destroyed
// automatically when the last handle is closed; calling Close on such a
// pool while handles remain open is a caller bug.
func (p *Pool) Close() {
	if p.closed {
		return
	}
	p.destroy()
}

// ChunkSize returns the active chunk size in bytes.
func (p *Pool) ChunkSize() int { return p.chunkSize }

// FreeCount returns the number of chunks currently on the free list.
func (p *Pool) FreeCount() int { return len(p.free) }

// Stats returns a copy of the pool's counters.
func (p *Pool) Stats() Stats { return p.stats }

// refill acquires one block from the Source and pushes every chunk it
// yields onto the free list.
func (p *Pool) refill() error {
	chunks, wasted, err := Partition(p.blockSize, p.chunkSize)
	if err != nil {
		return err
	}
	block, err := p.src.Acquire(p.blockSize)
	if err != nil {
		return fmt.Errorf("pool: block acquire failed: %w", err)
	}
	base := unsafe.Pointer(&block[0])
	for i := 0; i < chunks; i++ {
		p.free = append(p.free, unsafe.Add(base, i*p.chunkSize))
	}
	p.blocks = append(p.blocks, block)
	p.stats.BlockAcquires++
	p.stats.WastedBytes += wasted
	return nil
}

// pinRun records a multi-element allocation so the garbage collector keeps
// it alive until the matching Deallocate.
func (p *Pool) pinRun(addr unsafe.Pointer, run any) {
	if p.runs == nil {
		p.runs = make(map[unsafe.Pointer]any)
	}
	p.runs[addr] = run
}

func (p *Pool) unpinRun(addr unsafe.Pointer) {
	delete(p.runs, addr)
}

// retain and release drive the pool's shared ownership among handles. The
// pool is destroyed when the count drops to zero.
func (p *Pool) retain() { p.refs++ }

func (p *Pool) release() {
	if p.closed {
		return
	}
	p.refs--
	if p.refs > 0 {
		return
	}
	p.destroy()
}

// destroy returns every block to the Source and marks the pool dead. Chunks
// still live at this point dangle; keeping a handle open for the lifetime
// of its allocations is a caller obligation.
func (p *Pool) destroy() {
	for _, b := range p.blocks {
		p.src.Release(b)
	}
	p.blocks = nil
	p.free = nil
	p.runs = nil
	p.closed = true
}
