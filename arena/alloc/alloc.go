package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Runtime debug flag for allocation logging - controlled by ARENA_LOG_ALLOC env var.
var logAlloc = os.Getenv("ARENA_LOG_ALLOC") != ""

// state tracks where an Allocator is in its Init/Destroy lifecycle.
type state uint8

const (
	stateNew state = iota
	stateReady
	stateDestroyed
)

// Allocator manages one caller-supplied arena with a block ledger.
//
// All methods are safe for concurrent use. A single mutex guards the ledger,
// the counters and the statistics, so no caller ever observes a ledger in the
// middle of a split or a merge.
type Allocator struct {
	mu sync.Mutex

	log   *slog.Logger
	state state
	arena Arena

	ledger ledger

	// live is the number of currently allocated blocks.
	live uint64
	// frees is the number of completed frees since the last Init.
	frees uint64

	stats allocatorStats
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger used for split, merge and rejection events.
// A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// New returns an uninitialised Allocator. Call Init before allocating.
// The zero value is equivalent to New().
func New(opts ...Option) *Allocator {
	a := &Allocator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fallbackLog serves allocators built without WithLogger, including the
// zero value.
var fallbackLog = defaultLogger()

func (a *Allocator) logger() *slog.Logger {
	if a.log == nil {
		return fallbackLog
	}
	return a.log
}

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init starts managing arena. Any previous ledger is discarded, and the
// counters and statistics are cleared. Handles from an earlier arena are no
// longer valid.
func (a *Allocator) Init(arena Arena) error {
	if arena.Length <= 0 {
		return fmt.Errorf("%w: length %d", ErrInvalidArena, arena.Length)
	}
	if uint64(arena.Length) > uint64(^uintptr(0)-uintptr(arena.Base)) {
		return fmt.Errorf("%w: %s+%d overflows the address space", ErrInvalidArena, arena.Base, arena.Length)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.arena = arena
	a.ledger.reset(arena)
	a.live = 0
	a.frees = 0
	a.stats = allocatorStats{}
	a.state = stateReady

	a.logger().Debug("arena initialized", "base", arena.Base.String(), "length", arena.Length)
	return nil
}

// Destroy releases the ledger. The arena itself stays with the caller.
// Afterwards Allocate fails with ErrNotInitialized and Free with
// ErrUseAfterDestroy until the next Init.
func (a *Allocator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateReady {
		return
	}
	a.logger().Debug("arena destroyed", "base", a.arena.Base.String(), "live", a.live)
	a.ledger.release()
	a.arena = Arena{}
	a.live = 0
	a.state = stateDestroyed
}

// Allocate reserves n bytes using placement strategy s and returns the
// start address of the reserved block.
func (a *Allocator) Allocate(s Strategy, n int64) (Addr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.AllocCalls++

	if a.state != stateReady {
		a.stats.AllocFailures++
		return 0, ErrNotInitialized
	}
	if n <= 0 {
		a.stats.AllocFailures++
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if !s.Valid() {
		a.stats.AllocFailures++
		return 0, fmt.Errorf("%w: %s", ErrUnknownStrategy, s)
	}

	i := a.ledger.search(s, n)
	if i < 0 {
		a.stats.AllocFailures++
		largest := a.ledger.largestFree()
		a.logger().Warn("allocation failed", "strategy", s.String(), "need", n, "largest_free", largest)
		return 0, fmt.Errorf("%w: need %d, largest free %d", ErrOutOfMemory, n, largest)
	}

	if a.ledger.split(i, n) {
		a.stats.SplitCount++
		a.logger().Debug("split block",
			"start", a.ledger.blocks[i].Start.String(),
			"size", n,
			"remainder", a.ledger.blocks[i+1].Size,
		)
	}

	b := &a.ledger.blocks[i]
	b.Allocated = true
	a.live++
	a.stats.BytesAllocated += n

	return b.Start, nil
}

// AllocFirstFit is Allocate(FirstFit, n).
func (a *Allocator) AllocFirstFit(n int64) (Addr, error) { return a.Allocate(FirstFit, n) }

// AllocBestFit is Allocate(BestFit, n).
func (a *Allocator) AllocBestFit(n int64) (Addr, error) { return a.Allocate(BestFit, n) }

// AllocWorstFit is Allocate(WorstFit, n).
func (a *Allocator) AllocWorstFit(n int64) (Addr, error) { return a.Allocate(WorstFit, n) }

// Free releases the block starting at addr and merges it with free
// neighbours. The preceding block is merged before the following one, so a
// single Free can fold three blocks into one.
func (a *Allocator) Free(addr Addr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.FreeCalls++

	switch a.state {
	case stateNew:
		a.stats.FreeFailures++
		return ErrNotInitialized
	case stateDestroyed:
		a.stats.FreeFailures++
		a.logger().Warn("free after destroy", "addr", addr.String())
		return fmt.Errorf("%w: %s", ErrUseAfterDestroy, addr)
	}

	i, ok := a.ledger.find(addr)
	if !ok {
		a.stats.FreeFailures++
		a.logger().Warn("free of unknown address", "addr", addr.String())
		return fmt.Errorf("%w: %s", ErrInvalidPointer, addr)
	}
	b := &a.ledger.blocks[i]
	if !b.Allocated {
		a.stats.FreeFailures++
		a.logger().Warn("double free", "addr", addr.String())
		return fmt.Errorf("%w: %s", ErrDoubleFree, addr)
	}

	b.Allocated = false
	a.frees++
	a.live--
	a.stats.BytesFreed += b.Size

	i, backward, forward := a.ledger.coalesce(i)
	if backward {
		a.stats.CoalesceBackward++
	}
	if forward {
		a.stats.CoalesceForward++
	}
	if backward || forward {
		a.logger().Debug("coalesced",
			"start", a.ledger.blocks[i].Start.String(),
			"size", a.ledger.blocks[i].Size,
			"backward", backward,
			"forward", forward,
		)
	}
	return nil
}
