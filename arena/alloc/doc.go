// Package alloc provides a block allocator over a caller-owned, fixed-size arena.
//
// # Overview
//
// An Allocator never owns memory. It is told the bounds of an arena and keeps
// a ledger of blocks that partitions that arena into allocated and free
// ranges. Allocation returns the start address of a block; that address is
// the handle the caller later passes to Free. The allocator never reads or
// writes payload bytes.
//
// # Lifecycle
//
//	a := alloc.New()
//	if err := a.Init(alloc.NewArena(buf)); err != nil {
//	    return err
//	}
//	defer a.Destroy()
//
//	p, err := a.Allocate(alloc.BestFit, 256)
//	if err != nil {
//	    return err
//	}
//	// ... use buf[p-base : p-base+256] ...
//	err = a.Free(p)
//
// Init may be called again after Destroy to manage a new arena.
//
// # Placement Strategies
//
//	FirstFit: lowest-addressed free block with size >= n
//	BestFit:  smallest free block with size >= n
//	WorstFit: largest free block with size >= n
//
// Ties are always broken by the lowest address. When the chosen block is
// larger than the request it is split: the head is allocated and the
// remainder becomes a new free block directly after it.
//
// # Coalescing
//
// Free marks a block free and merges it with a free predecessor first, then
// with a free successor. After every Free no two adjacent blocks are free.
//
// # Errors
//
// Misuse is reported through sentinel errors, matched with errors.Is:
// ErrInvalidArena, ErrNotInitialized, ErrOutOfMemory, ErrInvalidPointer,
// ErrDoubleFree, ErrUseAfterDestroy, ErrInvalidSize, ErrUnknownStrategy.
//
// # Thread Safety
//
// Allocator instances are safe for concurrent use. Every operation and every
// accounting query runs under one mutex scoped to the ledger.
//
// # Related Packages
//
//   - github.com/joshuapare/arenakit/arena/verify: Ledger invariant checks
//   - github.com/joshuapare/arenakit/arena/report: Accounting report
//   - github.com/joshuapare/arenakit/arena/scenario: Scripted workloads
package alloc
