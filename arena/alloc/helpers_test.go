package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBase is the synthetic arena base used by tests. The allocator never
// dereferences addresses, so no real memory is needed behind it.
const testBase Addr = 0x10000

// newTestAllocator returns an allocator initialised over a synthetic arena.
func newTestAllocator(t testing.TB, length int64) *Allocator {
	t.Helper()
	a := New()
	require.NoError(t, a.Init(Arena{Base: testBase, Length: length}))
	return a
}

// newFragmentedAllocator builds a ledger whose free blocks have exactly the
// given sizes, in order, separated by 1-byte allocated spacers:
//
//	[free s0][used 1][free s1][used 1]...[free sN]
//
// It returns the allocator and the start address of each free block.
func newFragmentedAllocator(t testing.TB, sizes []int64) (*Allocator, []Addr) {
	t.Helper()

	var length int64
	for _, sz := range sizes {
		length += sz
	}
	length += int64(len(sizes) - 1)

	a := newTestAllocator(t, length)
	holes := make([]Addr, 0, len(sizes))
	for i, sz := range sizes {
		p, err := a.Allocate(FirstFit, sz)
		require.NoError(t, err)
		holes = append(holes, p)
		if i < len(sizes)-1 {
			_, err = a.Allocate(FirstFit, 1)
			require.NoError(t, err)
		}
	}
	for _, p := range holes {
		require.NoError(t, a.Free(p))
	}

	require.Equal(t, uint64(len(sizes)), a.FreeBlockCount(), "holes must not coalesce")
	assertInvariants(t, a)
	return a, holes
}

// assertInvariants checks the ledger partitions the arena, that every block
// is non-empty, that no two neighbours are both free, and that the byte
// totals add up to the arena length.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()

	arena, ok := a.Arena()
	require.True(t, ok, "allocator must be initialised")
	blocks := a.Blocks()
	require.NotEmpty(t, blocks, "ledger must not be empty")

	assert.Equal(t, arena.Base, blocks[0].Start, "first block must start at arena base")
	for i, b := range blocks {
		assert.Positive(t, b.Size, "block %d has non-positive size", i)
		if i == 0 {
			continue
		}
		prev := blocks[i-1]
		assert.Equal(t, prev.End(), b.Start, "block %d is not contiguous with block %d", i, i-1)
		assert.False(t, !prev.Allocated && !b.Allocated, "blocks %d and %d are both free", i-1, i)
	}
	assert.Equal(t, arena.End(), blocks[len(blocks)-1].End(), "last block must end at arena end")

	assert.Equal(t, uint64(arena.Length), a.AllocatedBytes()+a.FreeBytes(),
		"allocated + free must equal arena length")
}

// blockAt returns the ledger block starting at addr.
func blockAt(t testing.TB, a *Allocator, addr Addr) Block {
	t.Helper()
	for _, b := range a.Blocks() {
		if b.Start == addr {
			return b
		}
	}
	require.FailNow(t, "no block at address", "addr %s", addr)
	return Block{}
}
