package alloc

import (
	"cmp"
	"slices"
)

// ledger is the address-ordered partition of the arena into blocks.
//
// Blocks are stored by value in a slice, so a split is an insert after the
// split block and a merge is a delete of the absorbed block. Indexes into
// blocks are only valid until the next structural change; nothing outside
// the Allocator's critical section ever holds one.
type ledger struct {
	blocks []Block
}

// reset replaces the ledger with a single free block spanning the arena.
func (l *ledger) reset(arena Arena) {
	l.blocks = append(l.blocks[:0], Block{Start: arena.Base, Size: arena.Length})
}

// release drops every block and the backing storage.
func (l *ledger) release() {
	l.blocks = nil
}

// find returns the index of the block starting exactly at addr.
// O(log n) binary search over ascending start addresses.
func (l *ledger) find(addr Addr) (int, bool) {
	return slices.BinarySearchFunc(l.blocks, addr, func(b Block, target Addr) int {
		return cmp.Compare(b.Start, target)
	})
}

// split carves the block at i into a head of exactly n bytes and a free tail
// holding the remainder. It reports whether a tail was created; a block of
// exactly n bytes is left whole.
func (l *ledger) split(i int, n int64) bool {
	b := l.blocks[i]
	if b.Size <= n {
		return false
	}
	tail := Block{Start: b.Start + Addr(n), Size: b.Size - n}
	l.blocks[i].Size = n
	l.blocks = slices.Insert(l.blocks, i+1, tail)
	return true
}

// coalesce merges the free block at i with a free predecessor and then with a
// free successor. It returns the index of the surviving block and which
// merges happened.
func (l *ledger) coalesce(i int) (idx int, backward, forward bool) {
	if i > 0 && !l.blocks[i-1].Allocated {
		l.blocks[i-1].Size += l.blocks[i].Size
		l.blocks = slices.Delete(l.blocks, i, i+1)
		i--
		backward = true
	}
	if i+1 < len(l.blocks) && !l.blocks[i+1].Allocated {
		l.blocks[i].Size += l.blocks[i+1].Size
		l.blocks = slices.Delete(l.blocks, i+1, i+2)
		forward = true
	}
	return i, backward, forward
}

// totals sums allocated and free bytes and counts free blocks in one pass.
func (l *ledger) totals() (allocated, free, freeBlocks uint64) {
	for _, b := range l.blocks {
		if b.Allocated {
			allocated += uint64(b.Size)
			continue
		}
		free += uint64(b.Size)
		freeBlocks++
	}
	return allocated, free, freeBlocks
}

// largestFree returns the size of the largest free block, 0 if none.
func (l *ledger) largestFree() int64 {
	var largest int64
	for _, b := range l.blocks {
		if !b.Allocated && b.Size > largest {
			largest = b.Size
		}
	}
	return largest
}
