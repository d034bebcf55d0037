package alloc

import (
	"fmt"
	"strings"
	"unsafe"
)

// Addr is an address inside a managed arena. The start address of an
// allocated block is the handle returned by Allocate and accepted by Free.
type Addr uintptr

// String formats the address as hex.
func (a Addr) String() string {
	return fmt.Sprintf("0x%X", uintptr(a))
}

// Arena is the caller-owned region an Allocator manages.
// The allocator only records its bounds and never touches its bytes.
type Arena struct {
	Base   Addr
	Length int64
}

// NewArena returns the Arena spanning buf. The caller keeps ownership of buf
// and must keep it alive for as long as the allocator manages it.
func NewArena(buf []byte) Arena {
	if len(buf) == 0 {
		return Arena{}
	}
	return Arena{
		Base:   Addr(uintptr(unsafe.Pointer(unsafe.SliceData(buf)))),
		Length: int64(len(buf)),
	}
}

// End returns the first address past the arena.
func (a Arena) End() Addr {
	return a.Base + Addr(a.Length)
}

// Contains reports whether addr lies inside the arena.
func (a Arena) Contains(addr Addr) bool {
	return addr >= a.Base && addr < a.End()
}

// Offset returns addr relative to the arena base.
func (a Arena) Offset(addr Addr) int64 {
	return int64(addr - a.Base)
}

// Block is one ledger entry: a contiguous, non-empty sub-range of the arena.
type Block struct {
	Start     Addr
	Size      int64
	Allocated bool
}

// End returns the first address past the block.
func (b Block) End() Addr {
	return b.Start + Addr(b.Size)
}

// Strategy selects which free block satisfies an allocation.
type Strategy uint8

const (
	// FirstFit takes the lowest-addressed free block that is large enough.
	FirstFit Strategy = iota + 1
	// BestFit takes the smallest free block that is large enough.
	BestFit
	// WorstFit takes the largest free block.
	WorstFit
)

// Strategies lists every placement strategy in a stable order.
var Strategies = []Strategy{FirstFit, BestFit, WorstFit}

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	return s >= FirstFit && s <= WorstFit
}

// ParseStrategy accepts "first-fit", "ff", "firstfit" and the equivalent
// spellings of the other strategies, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	switch n {
	case "firstfit", "ff", "first":
		return FirstFit, nil
	case "bestfit", "bf", "best":
		return BestFit, nil
	case "worstfit", "wf", "worst":
		return WorstFit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
