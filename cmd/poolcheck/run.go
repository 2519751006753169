package main

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/pool"
	"github.com/joshuapare/poolkit/source"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

type runFlags struct {
	chunkSize  int
	blockSize  int
	reserved   int
	ops        int
	seed       int64
	sourceName string
}

// runReport is the summary printed after a successful run.
type runReport struct {
	Ops           int  `json:"ops"`
	ChunkSize     int  `json:"chunk_size"`
	BlockSize     int  `json:"block_size"`
	Reserved      int  `json:"reserved_blocks"`
	BlockAcquires int  `json:"block_acquires"`
	ChunkAcquires int  `json:"chunk_acquires"`
	ChunkReleases int  `json:"chunk_releases"`
	WastedBytes   int  `json:"wasted_bytes"`
	PeakLive      int  `json:"peak_live"`
	OK            bool `json:"ok"`
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an acquire/release workload and verify pool invariants",
		Long: `The run command drives a single pool through a randomized
acquire/release workload while checking, on every operation, that no live
address is ever duplicated, that a release followed by an acquisition
returns the same address (LIFO reuse), and that reserved blocks really do
pre-warm the pool.

Example:
  poolcheck run --chunk-size 64 --block-size 4096 --ops 100000
  poolcheck run --chunk-size 128 --reserved 16 --source hugepage --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(f)
		},
	}
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 64, "Chunk size in bytes")
	cmd.Flags().IntVar(&f.blockSize, "block-size", pool.DefaultBlockSize, "Block size in bytes")
	cmd.Flags().IntVar(&f.reserved, "reserved", 0, "Blocks to pre-warm at construction")
	cmd.Flags().IntVar(&f.ops, "ops", 100000, "Number of workload operations")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Workload RNG seed")
	cmd.Flags().StringVar(&f.sourceName, "source", "heap",
		"Block source: heap, aligned, or hugepage")
	return cmd
}

func newSource(name string) (pool.Source, error) {
	switch name {
	case "heap":
		return source.Heap{}, nil
	case "aligned":
		return source.Aligned{}, nil
	case "hugepage":
		return source.HugePage{}, nil
	default:
		return nil, fmt.Errorf("unknown source %q (want heap, aligned, or hugepage)", name)
	}
}

func runWorkload(f runFlags) error {
	src, err := newSource(f.sourceName)
	if err != nil {
		return err
	}

	chunksPerBlock, _, err := pool.Partition(f.blockSize, f.chunkSize)
	if err != nil {
		return fmt.Errorf("bad geometry: %w", err)
	}
	printVerbose("geometry: %d chunks per %d-byte block\n", chunksPerBlock, f.blockSize)

	p, err := pool.New(f.chunkSize, &pool.Config{
		BlockSize:      f.blockSize,
		ReservedBlocks: f.reserved,
		Source:         src,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	// Pre-warm check: the reserved chunks must all come out of the blocks
	// acquired at construction.
	if got := p.Stats().BlockAcquires; got != f.reserved {
		return fmt.Errorf("pre-warm: acquired %d blocks at construction, want %d", got, f.reserved)
	}
	prewarmed := f.reserved * chunksPerBlock

	rng := rand.New(rand.NewSource(f.seed))
	live := make(map[unsafe.Pointer]bool)
	var stack []unsafe.Pointer // acquisition order, for release variety
	peak := 0

	for i := 0; i < f.ops; i++ {
		if len(live) == 0 || rng.Intn(100) < 60 {
			ptr, err := p.AcquireChunk()
			if err != nil {
				return fmt.Errorf("op %d: acquire: %w", i, err)
			}
			if live[ptr] {
				return fmt.Errorf("op %d: duplicated live address %#x", i, ptr)
			}
			live[ptr] = true
			stack = append(stack, ptr)
			if len(live) > peak {
				peak = len(live)
			}
			if p.Stats().ChunkAcquires <= prewarmed && p.Stats().BlockAcquires != f.reserved {
				return fmt.Errorf("op %d: pre-warm violated: block acquired before %d chunks served",
					i, prewarmed)
			}
		} else {
			idx := rng.Intn(len(stack))
			ptr := stack[idx]
			stack = append(stack[:idx], stack[idx+1:]...)
			delete(live, ptr)
			p.ReleaseChunk(ptr)

			// LIFO round-trip: an immediate re-acquisition must return the
			// address just released.
			again, err := p.AcquireChunk()
			if err != nil {
				return fmt.Errorf("op %d: reacquire: %w", i, err)
			}
			if again != ptr {
				return fmt.Errorf("op %d: LIFO violated: released %#x, got %#x", i, ptr, again)
			}
			live[ptr] = true
			stack = append(stack, ptr)
		}
	}

	st := p.Stats()
	report := runReport{
		Ops:           f.ops,
		ChunkSize:     f.chunkSize,
		BlockSize:     f.blockSize,
		Reserved:      f.reserved,
		BlockAcquires: st.BlockAcquires,
		ChunkAcquires: st.ChunkAcquires,
		ChunkReleases: st.ChunkReleases,
		WastedBytes:   st.WastedBytes,
		PeakLive:      peak,
		OK:            true,
	}
	if jsonOut {
		return printJSON(report)
	}
	printInfo("poolcheck: %d ops OK\n", report.Ops)
	printInfo("  blocks acquired: %d\n", report.BlockAcquires)
	printInfo("  chunks acquired: %d\n", report.ChunkAcquires)
	printInfo("  chunks released: %d\n", report.ChunkReleases)
	printInfo("  wasted bytes:    %d\n", report.WastedBytes)
	printInfo("  peak live:       %d\n", report.PeakLive)
	return nil
}
