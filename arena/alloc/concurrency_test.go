package alloc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// claims records the address ranges currently held by live handles across
// all goroutines, so an overlapping grant is detected the moment it happens.
type claims struct {
	mu     sync.Mutex
	ranges map[Addr]int64
}

func (c *claims) take(p Addr, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := p + Addr(n)
	for start, size := range c.ranges {
		if p < start+Addr(size) && start < end {
			return fmt.Errorf("range [%s,+%d) overlaps live [%s,+%d)", p, n, start, size)
		}
	}
	c.ranges[p] = n
	return nil
}

func (c *claims) release(p Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ranges, p)
}

// TestConcurrent_RandomAllocFree runs many goroutines doing interleaved
// allocate/free of random sizes against one allocator and checks that no two
// live handles overlap and that the ledger invariants hold throughout.
func TestConcurrent_RandomAllocFree(t *testing.T) {
	const (
		arenaLen = 1 << 16
		workers  = 16
		steps    = 500
	)

	a := newTestAllocator(t, arenaLen)
	held := &claims{ranges: make(map[Addr]int64)}

	g, ctx := errgroup.WithContext(context.Background())
	for w := range workers {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(w) + 1))
			strategy := Strategies[w%len(Strategies)]
			var mine []Addr

			for i := range steps {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if len(mine) == 0 || rng.Intn(2) == 0 {
					n := int64(1 + rng.Intn(1024))
					p, err := a.Allocate(strategy, n)
					if errors.Is(err, ErrOutOfMemory) {
						continue
					}
					if err != nil {
						return fmt.Errorf("worker %d step %d: %w", w, i, err)
					}
					if err := held.take(p, n); err != nil {
						return fmt.Errorf("worker %d step %d: %w", w, i, err)
					}
					mine = append(mine, p)
					continue
				}

				k := rng.Intn(len(mine))
				p := mine[k]
				mine = append(mine[:k], mine[k+1:]...)
				held.release(p)
				if err := a.Free(p); err != nil {
					return fmt.Errorf("worker %d step %d: %w", w, i, err)
				}
			}

			for _, p := range mine {
				held.release(p)
				if err := a.Free(p); err != nil {
					return fmt.Errorf("worker %d drain: %w", w, err)
				}
			}
			return nil
		})
	}

	// Observe the ledger while the workers run.
	g.Go(func() error {
		for range 200 {
			if ctx.Err() != nil {
				return nil
			}
			s := a.Stats()
			if s.AllocatedBytes+s.FreeBytes != arenaLen {
				return fmt.Errorf("accounting drift: %d + %d", s.AllocatedBytes, s.FreeBytes)
			}
			blocks := a.Blocks()
			for i := 1; i < len(blocks); i++ {
				if blocks[i-1].End() != blocks[i].Start {
					return fmt.Errorf("gap between blocks %d and %d", i-1, i)
				}
				if !blocks[i-1].Allocated && !blocks[i].Allocated {
					return fmt.Errorf("adjacent free blocks %d and %d", i-1, i)
				}
			}
		}
		return nil
	})

	require.NoError(t, g.Wait())

	assertInvariants(t, a)
	assert.Len(t, a.Blocks(), 1, "all memory returned must coalesce to one block")
	assert.Equal(t, uint64(0), a.LiveAllocationCount())
	assert.Equal(t, a.Stats().AllocCalls-a.Stats().AllocFailures, a.SuccessfulFreeCount())
}

// TestConcurrent_DestroyRace verifies Destroy racing with allocate/free only
// ever yields the documented errors.
func TestConcurrent_DestroyRace(t *testing.T) {
	a := newTestAllocator(t, 1<<12)

	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			for range 200 {
				p, err := a.Allocate(Strategies[w%3], 16)
				if err != nil {
					if errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrOutOfMemory) {
						continue
					}
					return err
				}
				if err := a.Free(p); err != nil && !errors.Is(err, ErrUseAfterDestroy) {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		a.Destroy()
		return nil
	})

	require.NoError(t, g.Wait())
	_, err := a.Allocate(FirstFit, 1)
	require.ErrorIs(t, err, ErrNotInitialized)
}
