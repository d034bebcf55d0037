package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/verify"
)

// StepError reports the operation at which a worker stopped.
type StepError struct {
	Worker string
	Index  int
	Op     Kind
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("worker %q op %d (%s): %v", e.Worker, e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// WorkerResult counts what one worker did.
type WorkerResult struct {
	Name     string         `json:"name"`
	Ops      int            `json:"ops"`
	Allocs   int            `json:"allocs"`
	Frees    int            `json:"frees"`
	Failures map[Expect]int `json:"failures,omitempty"`
}

func (r *WorkerResult) fail(e Expect) {
	if r.Failures == nil {
		r.Failures = make(map[Expect]int)
	}
	r.Failures[e]++
}

// Result is the outcome of a completed run.
type Result struct {
	Strategy alloc.Strategy `json:"strategy"`
	Workers  []WorkerResult `json:"workers"`
	Stats    alloc.Stats    `json:"stats"`
	Elapsed  time.Duration  `json:"elapsed"`
}

type runConfig struct {
	strategy alloc.Strategy
	log      *slog.Logger
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithStrategy replaces the scenario's default strategy. Ops that name their
// own strategy keep it.
func WithStrategy(s alloc.Strategy) RunOption {
	return func(c *runConfig) { c.strategy = s }
}

// WithLogger sets the logger for per-step progress.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Run executes sc against a, which must already be initialised over an arena
// of at least sc.Arena bytes. Each worker runs in its own goroutine; the first
// unexpected outcome cancels the others and is returned as a *StepError.
func Run(ctx context.Context, a *alloc.Allocator, sc *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		strategy: sc.Strategy,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.strategy.Valid() {
		return nil, fmt.Errorf("%w: %s", alloc.ErrUnknownStrategy, cfg.strategy)
	}

	arena, ok := a.Arena()
	if !ok {
		return nil, alloc.ErrNotInitialized
	}
	if arena.Length < int64(sc.Arena) {
		return nil, fmt.Errorf("%w: arena is %d bytes, scenario needs %d", ErrInvalid, arena.Length, sc.Arena)
	}

	res := &Result{
		Strategy: cfg.strategy,
		Workers:  make([]WorkerResult, len(sc.Workers)),
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := range sc.Workers {
		r := &runner{
			a:      a,
			arena:  arena,
			cfg:    &cfg,
			check:  sc.CheckInvariants,
			worker: &sc.Workers[i],
			res:    &res.Workers[i],
			labels: make(map[string]alloc.Addr),
		}
		r.res.Name = r.worker.Name
		g.Go(func() error { return r.run(gctx) })
	}
	err := g.Wait()

	res.Elapsed = time.Since(start)
	res.Stats = a.Stats()
	return res, err
}

// runner holds one worker's state for the duration of a run.
type runner struct {
	a      *alloc.Allocator
	arena  alloc.Arena
	cfg    *runConfig
	check  bool
	worker *Worker
	res    *WorkerResult
	labels map[string]alloc.Addr
}

func (r *runner) run(ctx context.Context) error {
	for i := range r.worker.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		op := &r.worker.Ops[i]
		if err := r.step(op); err != nil {
			return &StepError{Worker: r.worker.Name, Index: i, Op: op.Op, Err: err}
		}
		r.res.Ops++

		if r.check {
			if snap := r.a.Snapshot(); snap.Ready {
				if err := verify.Snapshot(snap); err != nil {
					return &StepError{Worker: r.worker.Name, Index: i, Op: op.Op, Err: err}
				}
			}
		}
	}
	return nil
}

func (r *runner) strategy(op *Op) alloc.Strategy {
	if op.Strategy != 0 {
		return op.Strategy
	}
	return r.cfg.strategy
}

func (r *runner) step(op *Op) error {
	var err error
	switch op.Op {
	case KindAlloc:
		var p alloc.Addr
		p, err = r.a.Allocate(r.strategy(op), int64(op.Size))
		if err == nil {
			r.labels[op.Label] = p
			r.res.Allocs++
		}
		r.cfg.log.Debug("alloc", "worker", r.worker.Name, "label", op.Label, "size", int64(op.Size), "addr", p.String(), "err", err)
	case KindFree:
		p, ok := r.labels[op.Label]
		if !ok {
			// Only reachable when the allocation that binds the label failed as expected.
			return fmt.Errorf("label %q holds no address", op.Label)
		}
		err = r.a.Free(p)
		if err == nil {
			r.res.Frees++
		}
		r.cfg.log.Debug("free", "worker", r.worker.Name, "label", op.Label, "addr", p.String(), "err", err)
	case KindRandom:
		return r.random(op)
	case KindDestroy:
		r.a.Destroy()
		r.cfg.log.Debug("destroy", "worker", r.worker.Name)
	case KindInit:
		err = r.a.Init(r.arena)
		r.cfg.log.Debug("init", "worker", r.worker.Name, "err", err)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}

	got := classify(err)
	if got != ExpectOK {
		r.res.fail(got)
	}
	switch {
	case op.Expect == ExpectAny:
		return nil
	case op.Expect == ExpectOK && err != nil:
		return fmt.Errorf("unexpected error: %w", err)
	case op.Expect != ExpectOK && got != op.Expect:
		return fmt.Errorf("expected %s, got %v", op.Expect, outcome(err))
	}
	return nil
}

func outcome(err error) any {
	if err == nil {
		return "success"
	}
	return err
}

// random interleaves allocations of random sizes with frees of random live
// handles, then frees everything it still holds. Out-of-memory is an
// expected outcome and only counted.
func (r *runner) random(op *Op) error {
	rng := rand.New(rand.NewSource(op.Seed))
	s := r.strategy(op)
	span := int64(op.Max-op.Min) + 1
	var live []alloc.Addr

	for range op.Count {
		if len(live) == 0 || rng.Intn(2) == 0 {
			n := int64(op.Min) + rng.Int63n(span)
			p, err := r.a.Allocate(s, n)
			if errors.Is(err, alloc.ErrOutOfMemory) {
				r.res.fail(ExpectOutOfMemory)
				continue
			}
			if err != nil {
				return err
			}
			r.res.Allocs++
			live = append(live, p)
			continue
		}

		k := rng.Intn(len(live))
		p := live[k]
		live[k] = live[len(live)-1]
		live = live[:len(live)-1]
		if err := r.a.Free(p); err != nil {
			return err
		}
		r.res.Frees++
	}

	for _, p := range live {
		if err := r.a.Free(p); err != nil {
			return err
		}
		r.res.Frees++
	}
	r.cfg.log.Debug("random done", "worker", r.worker.Name, "count", op.Count, "seed", op.Seed)
	return nil
}
