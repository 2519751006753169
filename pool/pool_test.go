package pool

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// countingSource wraps a Source and counts block traffic.
type countingSource struct {
	inner    Source
	acquires int
	releases int
	failNext bool
}

func newCountingSource() *countingSource {
	return &countingSource{inner: heapSource{}}
}

func (s *countingSource) Acquire(size int) ([]byte, error) {
	if s.failNext {
		s.failNext = false
		return nil, errors.New("synthetic acquire failure")
	}
	s.acquires++
	return s.inner.Acquire(size)
}

func (s *countingSource) Release(block []byte) {
	s.releases++
	s.inner.Release(block)
}

// Test_ScenarioEvenPartition walks the 16-byte-chunk / 64-byte-block
// scenario: one block yields exactly four chunks, and the fifth acquisition
// forces a second block.
func Test_ScenarioEvenPartition(t *testing.T) {
	src := newCountingSource()
	p, err := New(16, &Config{BlockSize: 64, Source: src})
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, 0, src.acquires, "no block before first acquisition")

	seen := make(map[unsafe.Pointer]bool)
	for i := 0; i < 4; i++ {
		ptr, err := p.AcquireChunk()
		require.NoError(t, err)
		require.False(t, seen[ptr], "chunk %d duplicated", i)
		seen[ptr] = true
		require.Equal(t, 1, src.acquires, "first four chunks come from one block")
	}

	_, err = p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, 2, src.acquires, "fifth chunk forces a second block")
}

// Test_ScenarioTruncatedPartition checks the 24-byte-chunk / 64-byte-block
// case: 64 is not a multiple of 24, the usable span truncates to 40 bytes,
// and only one full chunk fits.
func Test_ScenarioTruncatedPartition(t *testing.T) {
	chunks, wasted, err := Partition(64, 24)
	require.NoError(t, err)
	require.Equal(t, 1, chunks)
	require.Equal(t, 40, wasted, "one 24-byte chunk leaves 40 of 64 bytes unused")

	src := newCountingSource()
	p, err := New(24, &Config{BlockSize: 64, Source: src})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, 1, src.acquires)

	// The single chunk is spent; the next acquisition needs a new block.
	_, err = p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, 2, src.acquires)
}

func Test_PartitionTable(t *testing.T) {
	cases := []struct {
		blockSize  int
		chunkSize  int
		wantChunks int
		wantWasted int
		wantErr    error
	}{
		{4096, 16, 256, 0, nil},
		{4096, 24, 169, 40, nil},
		{64, 16, 4, 0, nil},
		{64, 24, 1, 40, nil},
		{64, 64, 1, 0, nil},
		{64, 100, 0, 0, ErrChunkTooLarge},
		{64, 33, 0, 0, ErrChunkTooLarge},
		{64, 0, 0, 0, ErrBadChunkSize},
	}
	for _, tc := range cases {
		chunks, wasted, err := Partition(tc.blockSize, tc.chunkSize)
		if tc.wantErr != nil {
			require.ErrorIs(t, err, tc.wantErr, "block %d chunk %d", tc.blockSize, tc.chunkSize)
			continue
		}
		require.NoError(t, err, "block %d chunk %d", tc.blockSize, tc.chunkSize)
		require.Equal(t, tc.wantChunks, chunks, "block %d chunk %d", tc.blockSize, tc.chunkSize)
		require.Equal(t, tc.wantWasted, wasted, "block %d chunk %d", tc.blockSize, tc.chunkSize)
	}
}

// Test_RoundTripLIFO verifies that releasing a chunk and immediately
// re-acquiring returns the same address.
func Test_RoundTripLIFO(t *testing.T) {
	p, err := New(32, &Config{BlockSize: 256})
	require.NoError(t, err)
	defer p.Close()

	ptr, err := p.AcquireChunk()
	require.NoError(t, err)

	p.ReleaseChunk(ptr)
	again, err := p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, ptr, again, "LIFO free list must reuse the most recent release")
}

// Test_NoDuplication drives acquire/release cycles across several refills
// and checks that live addresses never collide with each other or with the
// free list.
func Test_NoDuplication(t *testing.T) {
	p, err := New(16, &Config{BlockSize: 64})
	require.NoError(t, err)
	defer p.Close()

	live := make(map[unsafe.Pointer]bool)
	var order []unsafe.Pointer

	for i := 0; i < 32; i++ {
		ptr, err := p.AcquireChunk()
		require.NoError(t, err)
		require.False(t, live[ptr], "address handed out twice while live")
		live[ptr] = true
		order = append(order, ptr)
	}

	// Release every other chunk, then re-acquire the same number.
	for i := 0; i < len(order); i += 2 {
		p.ReleaseChunk(order[i])
		delete(live, order[i])
	}
	for i := 0; i < 16; i++ {
		ptr, err := p.AcquireChunk()
		require.NoError(t, err)
		require.False(t, live[ptr], "re-acquired address collides with a live chunk")
		live[ptr] = true
	}
}

// Test_PreWarm verifies the reserved-block property: a pool constructed
// with R reserved blocks serves R×chunksPerBlock acquisitions without
// touching the source again.
func Test_PreWarm(t *testing.T) {
	const reserved = 3
	src := newCountingSource()
	p, err := New(16, &Config{BlockSize: 64, ReservedBlocks: reserved, Source: src})
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, reserved, src.acquires, "reserved blocks acquired eagerly")

	chunksPerBlock, _, err := Partition(64, 16)
	require.NoError(t, err)

	for i := 0; i < reserved*chunksPerBlock; i++ {
		_, err := p.AcquireChunk()
		require.NoError(t, err)
		require.Equal(t, reserved, src.acquires, "pre-warmed acquisition %d hit the source", i)
	}

	_, err = p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, reserved+1, src.acquires, "exhausting the pre-warm must refill")
}

// Test_RebindBeforeUse rebinds an empty pool and checks that all chunks
// produced afterwards carry the new size.
func Test_RebindBeforeUse(t *testing.T) {
	p, err := New(16, &Config{BlockSize: 256})
	require.NoError(t, err)
	defer p.Close()

	p.Rebind(32)
	require.Equal(t, 32, p.ChunkSize())

	// Chunks are pushed in address order and popped LIFO, so consecutive
	// acquisitions from a fresh block step down by exactly one chunk size.
	a, err := p.AcquireChunk()
	require.NoError(t, err)
	b, err := p.AcquireChunk()
	require.NoError(t, err)
	require.Equal(t, uintptr(32), uintptr(a)-uintptr(b))
}

func Test_RebindAfterUseFatal(t *testing.T) {
	p, err := New(16, &Config{BlockSize: 64})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.AcquireChunk()
	require.NoError(t, err)

	require.PanicsWithError(t, ErrRebindAfterUse.Error(), func() {
		p.Rebind(32)
	})
}

// Test_RebindAfterPreWarmFatal: pre-warming acquires blocks, which also
// freezes the chunk size even though no chunk was handed out yet.
func Test_RebindAfterPreWarmFatal(t *testing.T) {
	p, err := New(16, &Config{BlockSize: 64, ReservedBlocks: 1})
	require.NoError(t, err)
	defer p.Close()

	require.PanicsWithError(t, ErrRebindAfterUse.Error(), func() {
		p.Rebind(32)
	})
}

func Test_RebindBadSizeFatal(t *testing.T) {
	p, err := New(16, nil)
	require.NoError(t, err)
	defer p.Close()

	require.PanicsWithError(t, ErrBadChunkSize.Error(), func() {
		p.Rebind(0)
	})
}

// Test_RebindReleasedChunkFreezes: a release puts a chunk back on the free
// list, so rebinding stays illegal even when every chunk is free again.
func Test_RebindReleasedChunkFreezes(t *testing.T) {
	p, err := New(64, &Config{BlockSize: 64})
	require.NoError(t, err)
	defer p.Close()

	ptr, err := p.AcquireChunk()
	require.NoError(t, err)
	p.ReleaseChunk(ptr)

	require.PanicsWithError(t, ErrRebindAfterUse.Error(), func() {
		p.Rebind(32)
	})
}

func Test_ChunkTooLarge(t *testing.T) {
	p, err := New(100, &Config{BlockSize: 64})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.AcquireChunk()
	require.ErrorIs(t, err, ErrChunkTooLarge)

	// Construction with pre-warming surfaces the same failure eagerly.
	_, err = New(100, &Config{BlockSize: 64, ReservedBlocks: 1})
	require.ErrorIs(t, err, ErrChunkTooLarge)
}

func Test_BadConstruction(t *testing.T) {
	_, err := New(0, nil)
	require.ErrorIs(t, err, ErrBadChunkSize)

	_, err = New(-8, nil)
	require.ErrorIs(t, err, ErrBadChunkSize)

	_, err = New(16, &Config{BlockSize: -1})
	require.ErrorIs(t, err, ErrBadConfig)

	_, err = New(16, &Config{ReservedBlocks: -1})
	require.ErrorIs(t, err, ErrBadConfig)
}

// Test_SourceFailurePropagates: a failing source surfaces as a recoverable
// error, and the pool keeps working once the source recovers.
func Test_SourceFailurePropagates(t *testing.T) {
	src := newCountingSource()
	src.failNext = true
	p, err := New(16, &Config{BlockSize: 64, Source: src})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.AcquireChunk()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChunkTooLarge)

	ptr, err := p.AcquireChunk()
	require.NoError(t, err)
	require.NotNil(t, ptr)
}

func Test_CloseReleasesBlocks(t *testing.T) {
	src := newCountingSource()
	p, err := New(16, &Config{BlockSize: 64, ReservedBlocks: 2, Source: src})
	require.NoError(t, err)

	_, err = p.AcquireChunk()
	require.NoError(t, err)

	p.Close()
	require.Equal(t, src.acquires, src.releases, "every acquired block must be released")

	_, err = p.AcquireChunk()
	require.ErrorIs(t, err, ErrPoolClosed)

	// Double close is a no-op.
	p.Close()
	require.Equal(t, src.acquires, src.releases)
}

func Test_Stats(t *testing.T) {
	p, err := New(16, &Config{BlockSize: 64})
	require.NoError(t, err)
	defer p.Close()

	var ptrs []unsafe.Pointer
	for i := 0; i < 5; i++ {
		ptr, err := p.AcquireChunk()
		require.NoError(t, err)
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		p.ReleaseChunk(ptr)
	}

	st := p.Stats()
	require.Equal(t, 2, st.BlockAcquires)
	require.Equal(t, 5, st.ChunkAcquires)
	require.Equal(t, 5, st.ChunkReleases)
	require.Equal(t, 0, st.WastedBytes)
	require.Equal(t, 8, p.FreeCount(), "two blocks of four chunks, all free")
}
