package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("scenario: invalid")

// Size is a byte count that decodes from either a plain integer or a
// humanised string such as "64KiB" or "1 MB".
type Size int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	n, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: size %q: %w", value.Line, value.Value, err)
	}
	if n > 1<<62 {
		return fmt.Errorf("line %d: size %q too large", value.Line, value.Value)
	}
	*s = Size(n)
	return nil
}

func (s Size) String() string {
	return humanize.IBytes(uint64(s))
}

// Kind names an operation.
type Kind string

const (
	KindAlloc   Kind = "alloc"
	KindFree    Kind = "free"
	KindRandom  Kind = "random"
	KindDestroy Kind = "destroy"
	KindInit    Kind = "init"
)

// Expect names the outcome an operation is expected to have.
type Expect string

const (
	ExpectOK              Expect = "ok"
	ExpectAny             Expect = "any"
	ExpectOutOfMemory     Expect = "out-of-memory"
	ExpectDoubleFree      Expect = "double-free"
	ExpectInvalidPointer  Expect = "invalid-pointer"
	ExpectNotInitialized  Expect = "not-initialized"
	ExpectUseAfterDestroy Expect = "use-after-destroy"
)

var expectErrs = map[Expect]error{
	ExpectOutOfMemory:     alloc.ErrOutOfMemory,
	ExpectDoubleFree:      alloc.ErrDoubleFree,
	ExpectInvalidPointer:  alloc.ErrInvalidPointer,
	ExpectNotInitialized:  alloc.ErrNotInitialized,
	ExpectUseAfterDestroy: alloc.ErrUseAfterDestroy,
}

// classify maps an allocator error back to the Expect that names it.
func classify(err error) Expect {
	if err == nil {
		return ExpectOK
	}
	for e, target := range expectErrs {
		if errors.Is(err, target) {
			return e
		}
	}
	return ExpectAny
}

// Scenario is a scripted workload against one arena.
type Scenario struct {
	Arena           Size           `yaml:"arena"`
	Strategy        alloc.Strategy `yaml:"strategy"`
	CheckInvariants bool           `yaml:"check_invariants"`
	Workers         []Worker       `yaml:"workers"`
}

// Worker is a sequence of operations run by one goroutine. Labels are
// private to the worker.
type Worker struct {
	Name string `yaml:"name"`
	Ops  []Op   `yaml:"ops"`
}

// Op is a single scripted step.
type Op struct {
	Op       Kind           `yaml:"op"`
	Label    string         `yaml:"label"`
	Size     Size           `yaml:"size"`
	Strategy alloc.Strategy `yaml:"strategy"`
	Expect   Expect         `yaml:"expect"`

	// random only
	Count int   `yaml:"count"`
	Min   Size  `yaml:"min"`
	Max   Size  `yaml:"max"`
	Seed  int64 `yaml:"seed"`
}

// Load reads and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a YAML scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario and fills in defaults: FirstFit for a missing
// strategy, "worker-N" for a missing worker name and ExpectOK for a missing
// expectation.
func (sc *Scenario) Validate() error {
	if sc.Arena <= 0 {
		return fmt.Errorf("%w: arena size must be positive", ErrInvalid)
	}
	if sc.Strategy == 0 {
		sc.Strategy = alloc.FirstFit
	}
	if !sc.Strategy.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalid, sc.Strategy)
	}
	if len(sc.Workers) == 0 {
		return fmt.Errorf("%w: no workers", ErrInvalid)
	}

	names := make(map[string]bool, len(sc.Workers))
	for i := range sc.Workers {
		w := &sc.Workers[i]
		if w.Name == "" {
			w.Name = fmt.Sprintf("worker-%d", i)
		}
		if names[w.Name] {
			return fmt.Errorf("%w: duplicate worker name %q", ErrInvalid, w.Name)
		}
		names[w.Name] = true

		if err := w.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) validate() error {
	labels := make(map[string]bool)
	for i := range w.Ops {
		op := &w.Ops[i]
		if err := op.validate(labels); err != nil {
			return fmt.Errorf("%w: worker %q op %d (%s): %s", ErrInvalid, w.Name, i, op.Op, err)
		}
	}
	return nil
}

func (op *Op) validate(labels map[string]bool) error {
	if op.Expect == "" {
		op.Expect = ExpectOK
	}
	if _, known := expectErrs[op.Expect]; !known && op.Expect != ExpectOK && op.Expect != ExpectAny {
		return fmt.Errorf("unknown expect %q", op.Expect)
	}
	if op.Strategy != 0 && op.Op != KindAlloc && op.Op != KindRandom {
		return errors.New("strategy only applies to alloc and random")
	}

	switch op.Op {
	case KindAlloc:
		if op.Label == "" {
			return errors.New("label is required")
		}
		if op.Size <= 0 {
			return errors.New("size must be positive")
		}
		labels[op.Label] = true
	case KindFree:
		if op.Label == "" {
			return errors.New("label is required")
		}
		if !labels[op.Label] {
			return fmt.Errorf("label %q is never allocated before this free", op.Label)
		}
	case KindRandom:
		if op.Count <= 0 {
			return errors.New("count must be positive")
		}
		if op.Min <= 0 || op.Max < op.Min {
			return fmt.Errorf("need 0 < min <= max, got min %d max %d", op.Min, op.Max)
		}
		if op.Label != "" || op.Expect != ExpectOK {
			return errors.New("random takes no label or expect")
		}
	case KindDestroy, KindInit:
		if op.Label != "" || op.Size != 0 {
			return errors.New("takes no label or size")
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}
