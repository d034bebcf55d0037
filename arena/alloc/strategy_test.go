package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFitSelection verifies each strategy's choice over free blocks {10, 4, 7}
// for a 4-byte request.
func TestFitSelection(t *testing.T) {
	tests := []struct {
		strategy Strategy
		wantHole int // index into the hole list
		wantFree []int64
	}{
		{FirstFit, 0, []int64{6, 4, 7}}, // first encountered
		{BestFit, 1, []int64{10, 7}},    // exact fit
		{WorstFit, 0, []int64{6, 4, 7}}, // largest
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			a, holes := newFragmentedAllocator(t, []int64{10, 4, 7})

			p, err := a.Allocate(tt.strategy, 4)
			require.NoError(t, err)
			assert.Equal(t, holes[tt.wantHole], p)

			var free []int64
			for _, b := range a.Blocks() {
				if !b.Allocated {
					free = append(free, b.Size)
				}
			}
			assert.Equal(t, tt.wantFree, free)
			assertInvariants(t, a)
		})
	}
}

// TestBestFit_PicksSmallestSufficient verifies best-fit skips a block that is
// too small and a block that is larger than necessary.
func TestBestFit_PicksSmallestSufficient(t *testing.T) {
	a, holes := newFragmentedAllocator(t, []int64{1536, 1000, 1280, 1024})

	p, err := a.Allocate(BestFit, 1024)
	require.NoError(t, err)
	assert.Equal(t, holes[3], p, "should allocate from the 1024-byte block")

	p, err = a.Allocate(BestFit, 1100)
	require.NoError(t, err)
	assert.Equal(t, holes[2], p, "should allocate from the 1280-byte block")
	assert.Equal(t, int64(180), blockAt(t, a, p+1100).Size)
}

// TestFit_TiesGoToLowestAddress verifies best-fit and worst-fit keep the first
// of several equally sized candidates.
func TestFit_TiesGoToLowestAddress(t *testing.T) {
	for _, s := range []Strategy{BestFit, WorstFit} {
		t.Run(s.String(), func(t *testing.T) {
			a, holes := newFragmentedAllocator(t, []int64{8, 32, 32, 32})

			p, err := a.Allocate(s, 16)
			require.NoError(t, err)
			assert.Equal(t, holes[1], p)
		})
	}
}

// TestFirstFit_SkipsTooSmall verifies first-fit passes over free blocks that
// cannot hold the request.
func TestFirstFit_SkipsTooSmall(t *testing.T) {
	a, holes := newFragmentedAllocator(t, []int64{8, 16, 64, 128})

	p, err := a.Allocate(FirstFit, 50)
	require.NoError(t, err)
	assert.Equal(t, holes[2], p)
}

// TestWorstFit_SpreadsAllocations verifies successive worst-fit requests keep
// carving the currently largest block.
func TestWorstFit_SpreadsAllocations(t *testing.T) {
	a, holes := newFragmentedAllocator(t, []int64{100, 300, 200})

	p1, err := a.Allocate(WorstFit, 150)
	require.NoError(t, err)
	assert.Equal(t, holes[1], p1, "300 is the largest")

	p2, err := a.Allocate(WorstFit, 150)
	require.NoError(t, err)
	assert.Equal(t, holes[2], p2, "200 beats the 150 remainder")
	assertInvariants(t, a)
}

func TestAllocConvenienceEntryPoints(t *testing.T) {
	for _, tt := range []struct {
		name string
		call func(*Allocator, int64) (Addr, error)
		want int
	}{
		{"AllocFirstFit", (*Allocator).AllocFirstFit, 0},
		{"AllocBestFit", (*Allocator).AllocBestFit, 1},
		{"AllocWorstFit", (*Allocator).AllocWorstFit, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a, holes := newFragmentedAllocator(t, []int64{10, 4, 7})
			p, err := tt.call(a, 4)
			require.NoError(t, err)
			assert.Equal(t, holes[tt.want], p)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"first-fit", FirstFit},
		{"FirstFit", FirstFit},
		{"ff", FirstFit},
		{"best_fit", BestFit},
		{" BF ", BestFit},
		{"worst", WorstFit},
		{"worst-fit", WorstFit},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStrategy("next-fit")
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestStrategy_TextRoundTrip(t *testing.T) {
	for _, s := range Strategies {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var got Strategy
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}

	_, err := Strategy(9).MarshalText()
	require.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, "strategy(9)", Strategy(9).String())
}
