package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/pool"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

type partitionInfo struct {
	BlockSize      int     `json:"block_size"`
	ChunkSize      int     `json:"chunk_size"`
	ChunksPerBlock int     `json:"chunks_per_block"`
	WastedBytes    int     `json:"wasted_bytes"`
	Efficiency     float64 `json:"efficiency"`
}

func newInfoCmd() *cobra.Command {
	var blockSize int
	cmd := &cobra.Command{
		Use:   "info <chunk-size>",
		Short: "Show how a block partitions into chunks of the given size",
		Long: `The info command reports the partitioning a pool derives for a
chunk/block size pair: chunks per block, discarded bytes, and efficiency.

Example:
  poolcheck info 24 --block-size 64
  poolcheck info 48 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var chunkSize int
			if _, err := fmt.Sscanf(args[0], "%d", &chunkSize); err != nil {
				return fmt.Errorf("bad chunk size %q: %w", args[0], err)
			}
			return runPartitionInfo(blockSize, chunkSize)
		},
	}
	cmd.Flags().IntVar(&blockSize, "block-size", pool.DefaultBlockSize, "Block size in bytes")
	return cmd
}

func runPartitionInfo(blockSize, chunkSize int) error {
	chunks, wasted, err := pool.Partition(blockSize, chunkSize)
	if err != nil {
		return err
	}
	info := partitionInfo{
		BlockSize:      blockSize,
		ChunkSize:      chunkSize,
		ChunksPerBlock: chunks,
		WastedBytes:    wasted,
		Efficiency:     float64(blockSize-wasted) / float64(blockSize) * 100,
	}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("Partitioning for %d-byte chunks in %d-byte blocks:\n", chunkSize, blockSize)
	printInfo("  chunks per block: %d\n", info.ChunksPerBlock)
	printInfo("  wasted bytes:     %d\n", info.WastedBytes)
	printInfo("  efficiency:       %.1f%%\n", info.Efficiency)
	return nil
}
