package verify

import (
	"fmt"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// ValidationError describes the first invariant a ledger violates.
type ValidationError struct {
	Type    string
	Message string
	Index   int // block index, -1 when the failure is not tied to one block
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at block %d: %s", e.Type, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Ledger validates all ledger invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func Ledger(arena alloc.Arena, blocks []alloc.Block) error {
	if err := Partition(arena, blocks); err != nil {
		return err
	}
	return Coalesced(blocks)
}

// Partition checks that blocks cover [Base, Base+Length) exactly, in
// ascending order, with no gaps, no overlaps and no empty blocks.
func Partition(arena alloc.Arena, blocks []alloc.Block) error {
	if len(blocks) == 0 {
		return &ValidationError{
			Type:    "Partition",
			Message: "ledger is empty",
			Index:   -1,
		}
	}

	if blocks[0].Start != arena.Base {
		return &ValidationError{
			Type:    "Partition",
			Message: fmt.Sprintf("first block starts at %s, arena base is %s", blocks[0].Start, arena.Base),
			Index:   0,
		}
	}

	for i, b := range blocks {
		if b.Size <= 0 {
			return &ValidationError{
				Type:    "BlockSize",
				Message: fmt.Sprintf("non-positive size %d", b.Size),
				Index:   i,
			}
		}
		if i == 0 {
			continue
		}
		prevEnd := blocks[i-1].End()
		switch {
		case b.Start > prevEnd:
			return &ValidationError{
				Type:    "Partition",
				Message: fmt.Sprintf("gap of %d bytes before block", b.Start-prevEnd),
				Index:   i,
			}
		case b.Start < prevEnd:
			return &ValidationError{
				Type:    "Partition",
				Message: fmt.Sprintf("overlaps previous block by %d bytes", prevEnd-b.Start),
				Index:   i,
			}
		}
	}

	last := blocks[len(blocks)-1]
	if last.End() != arena.End() {
		return &ValidationError{
			Type:    "Partition",
			Message: fmt.Sprintf("last block ends at %s, arena ends at %s", last.End(), arena.End()),
			Index:   len(blocks) - 1,
		}
	}
	return nil
}

// Coalesced checks that no two neighbouring blocks are both free.
// This only holds between operations, never inside one.
func Coalesced(blocks []alloc.Block) error {
	for i := 1; i < len(blocks); i++ {
		if !blocks[i-1].Allocated && !blocks[i].Allocated {
			return &ValidationError{
				Type:    "Coalesce",
				Message: fmt.Sprintf("free block follows free block %d", i-1),
				Index:   i,
			}
		}
	}
	return nil
}

// Allocator snapshots a and validates its ledger and accounting.
func Allocator(a *alloc.Allocator) error {
	return Snapshot(a.Snapshot())
}

// Snapshot validates the ledger and accounting captured in snap.
func Snapshot(snap alloc.Snapshot) error {
	if !snap.Ready {
		return &ValidationError{
			Type:    "Allocator",
			Message: "not initialized",
			Index:   -1,
		}
	}

	arena, blocks, s := snap.Arena, snap.Blocks, snap.Stats
	if err := Ledger(arena, blocks); err != nil {
		return err
	}

	if got := s.AllocatedBytes + s.FreeBytes; got != uint64(arena.Length) {
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("allocated %d + free %d = %d, arena length %d", s.AllocatedBytes, s.FreeBytes, got, arena.Length),
			Index:   -1,
		}
	}

	var live uint64
	for _, b := range blocks {
		if b.Allocated {
			live++
		}
	}
	if live != s.Live {
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("%d allocated blocks, live counter %d", live, s.Live),
			Index:   -1,
		}
	}
	return nil
}
