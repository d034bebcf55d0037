package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/report"
	"github.com/joshuapare/arenakit/arena/scenario"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/internal/region"
)

var (
	runStrategy string
	runDump     bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runStrategy, "strategy", "", "Override the scenario strategy (first-fit, best-fit, worst-fit)")
	cmd.Flags().BoolVar(&runDump, "dump", false, "Print the final block ledger")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and report the final allocator state",
		Long: `The run command maps an arena of the scenario's size, replays every
worker's operations against it, and prints the resulting statistics.
Any operation whose outcome differs from its expectation fails the run.

Example:
  arenactl run basic.yaml
  arenactl run basic.yaml --strategy worst-fit --dump
  arenactl run concurrent.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

// RunOutput is the JSON form of a completed run.
type RunOutput struct {
	Scenario string                  `json:"scenario"`
	Strategy alloc.Strategy          `json:"strategy"`
	Elapsed  string                  `json:"elapsed"`
	Summary  report.Summary          `json:"summary"`
	Workers  []scenario.WorkerResult `json:"workers"`
}

func runRun(ctx context.Context, args []string) error {
	path := args[0]

	sc, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	var opts []scenario.RunOption
	if runStrategy != "" {
		s, err := alloc.ParseStrategy(runStrategy)
		if err != nil {
			return err
		}
		opts = append(opts, scenario.WithStrategy(s))
	}

	printVerbose("Mapping %s arena for %s\n", sc.Arena, path)
	a, release, err := newArenaAllocator(sc)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("failed to unmap arena", "error", err)
		}
	}()

	res, err := runScenario(ctx, a, sc, opts...)
	if err != nil {
		return err
	}

	if jsonOut {
		sum := report.Summarize(res.Stats)
		sum.Strategy = res.Strategy.String()
		return printJSON(RunOutput{
			Scenario: path,
			Strategy: res.Strategy,
			Elapsed:  res.Elapsed.String(),
			Summary:  sum,
			Workers:  res.Workers,
		})
	}

	printInfo("Scenario: %s (%s, %d workers, %s)\n\n",
		path, res.Strategy, len(res.Workers), res.Elapsed.Round(time.Microsecond))
	if !quiet {
		if err := report.Write(os.Stdout, res.Stats); err != nil {
			return err
		}
	}
	if verbose && !quiet {
		printInfo("\n")
		for _, w := range res.Workers {
			printInfo("  %-12s ops=%d allocs=%d frees=%d failures=%v\n", w.Name, w.Ops, w.Allocs, w.Frees, w.Failures)
		}
	}
	if runDump && !quiet {
		printInfo("\n")
		if err := a.Dump(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// newArenaAllocator maps a region sized for sc and initialises an allocator
// over it. The caller must call release once the allocator is no longer used.
func newArenaAllocator(sc *scenario.Scenario) (*alloc.Allocator, func() error, error) {
	buf, release, err := region.Map(int(sc.Arena))
	if err != nil {
		return nil, nil, err
	}
	a := alloc.New(alloc.WithLogger(logger.L))
	if err := a.Init(alloc.NewArena(buf)); err != nil {
		_ = release()
		return nil, nil, err
	}
	return a, func() error {
		a.Destroy()
		return release()
	}, nil
}

func runScenario(ctx context.Context, a *alloc.Allocator, sc *scenario.Scenario, opts ...scenario.RunOption) (*scenario.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts = append(opts, scenario.WithLogger(logger.L))

	logger.Info("scenario started", "arena", sc.Arena.String(), "workers", len(sc.Workers))
	res, err := scenario.Run(ctx, a, sc, opts...)
	if err != nil {
		logger.Error("scenario failed", "error", err)
		return res, fmt.Errorf("scenario failed: %w", err)
	}
	logger.Info("scenario finished",
		"strategy", res.Strategy.String(),
		"elapsed", res.Elapsed,
		"free_blocks", res.Stats.FreeBlocks,
		"alloc_failures", res.Stats.AllocFailures,
	)
	return res, nil
}
