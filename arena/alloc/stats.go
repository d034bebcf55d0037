package alloc

import (
	"fmt"
	"io"
	"slices"
)

// allocatorStats holds operation counters since the last Init.
type allocatorStats struct {
	AllocCalls       uint64 `json:"alloc_calls"`       // Total Allocate() calls
	AllocFailures    uint64 `json:"alloc_failures"`    // Allocate() calls that returned an error
	FreeCalls        uint64 `json:"free_calls"`        // Total Free() calls
	FreeFailures     uint64 `json:"free_failures"`     // Free() calls that returned an error
	SplitCount       uint64 `json:"split_count"`       // Number of block splits
	CoalesceForward  uint64 `json:"coalesce_forward"`  // Merges with the following block
	CoalesceBackward uint64 `json:"coalesce_backward"` // Merges with the preceding block
	BytesAllocated   int64  `json:"bytes_allocated"`   // Total bytes handed out
	BytesFreed       int64  `json:"bytes_freed"`       // Total bytes returned
}

// Stats is a consistent snapshot of an Allocator's counters and ledger totals.
type Stats struct {
	allocatorStats

	ArenaLength    int64  `json:"arena_length"`
	AllocatedBytes uint64 `json:"allocated_bytes"`
	FreeBytes      uint64 `json:"free_bytes"`
	FreeBlocks     uint64 `json:"free_blocks"`
	LargestFree    uint64 `json:"largest_free"`
	Live           uint64 `json:"live"`  // currently allocated blocks
	Frees          uint64 `json:"frees"` // completed frees since Init
}

// Snapshot is a ledger copy, the arena and the statistics taken under one
// lock, so all three describe the same instant.
type Snapshot struct {
	Arena  Arena
	Ready  bool
	Blocks []Block
	Stats  Stats
}

// Snapshot captures the allocator state atomically.
func (a *Allocator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Arena:  a.arena,
		Ready:  a.state == stateReady,
		Blocks: slices.Clone(a.ledger.blocks),
		Stats:  a.statsLocked(),
	}
}

// Stats returns a snapshot of counters and ledger totals.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statsLocked()
}

func (a *Allocator) statsLocked() Stats {
	allocated, free, freeBlocks := a.ledger.totals()
	return Stats{
		allocatorStats: a.stats,
		ArenaLength:    a.arena.Length,
		AllocatedBytes: allocated,
		FreeBytes:      free,
		FreeBlocks:     freeBlocks,
		LargestFree:    uint64(a.ledger.largestFree()),
		Live:           a.live,
		Frees:          a.frees,
	}
}

// AllocatedBytes returns the sum of allocated block sizes.
func (a *Allocator) AllocatedBytes() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	allocated, _, _ := a.ledger.totals()
	return allocated
}

// FreeBytes returns the sum of free block sizes.
func (a *Allocator) FreeBytes() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, free, _ := a.ledger.totals()
	return free
}

// FreeBlockCount returns the number of free blocks. For a given FreeBytes,
// a lower count means less external fragmentation.
func (a *Allocator) FreeBlockCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _, n := a.ledger.totals()
	return n
}

// SuccessfulFreeCount returns the number of completed frees since Init.
func (a *Allocator) SuccessfulFreeCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}

// SuccessfulAllocationCount is the historical "malloc count" query. It counts
// completed frees, not allocations, and always equals SuccessfulFreeCount.
// Use LiveAllocationCount for the number of outstanding allocations.
func (a *Allocator) SuccessfulAllocationCount() uint64 {
	return a.SuccessfulFreeCount()
}

// LiveAllocationCount returns the number of currently allocated blocks.
func (a *Allocator) LiveAllocationCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// LargestFreeBlock returns the size of the largest free block.
func (a *Allocator) LargestFreeBlock() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint64(a.ledger.largestFree())
}

// Blocks returns a copy of the ledger in address order.
func (a *Allocator) Blocks() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.ledger.blocks)
}

// Arena returns the managed arena and whether the allocator is initialised.
func (a *Allocator) Arena() (Arena, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.arena, a.state == stateReady
}

// Dump writes the ledger to w, one block per line.
func (a *Allocator) Dump(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateReady {
		_, err := fmt.Fprintln(w, "=== LEDGER (not initialized) ===")
		return err
	}

	if _, err := fmt.Fprintf(w, "=== LEDGER base=%s length=%d blocks=%d ===\n",
		a.arena.Base, a.arena.Length, len(a.ledger.blocks)); err != nil {
		return err
	}
	for i, b := range a.ledger.blocks {
		kind := "free"
		if b.Allocated {
			kind = "used"
		}
		if _, err := fmt.Fprintf(w, "  [%3d] +%-10d %-18s %10d  %s\n",
			i, a.arena.Offset(b.Start), b.Start, b.Size, kind); err != nil {
			return err
		}
	}
	return nil
}
