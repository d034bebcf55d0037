package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/report"
	"github.com/joshuapare/arenakit/arena/scenario"
	"github.com/joshuapare/arenakit/internal/logger"
)

func init() {
	rootCmd.AddCommand(newCompareCmd())
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <scenario.yaml>",
		Short: "Run a scenario under every placement strategy",
		Long: `The compare command runs the scenario once per placement strategy, each
time on a freshly mapped arena, and prints the final fragmentation of each
side by side. Ops that pin their own strategy keep it in every run.

A run whose expectations fail under one strategy is still reported; its
error is printed as a warning.

Example:
  arenactl compare concurrent.yaml
  arenactl compare basic.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), args)
		},
	}
	return cmd
}

// CompareEntry is one strategy's line in the JSON output of compare.
type CompareEntry struct {
	report.Summary
	Error string `json:"error,omitempty"`
}

func runCompare(ctx context.Context, args []string) error {
	path := args[0]

	sc, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	rows := make([]report.Row, 0, len(alloc.Strategies))
	entries := make([]CompareEntry, 0, len(alloc.Strategies))
	for _, s := range alloc.Strategies {
		printVerbose("Running %s with %s\n", path, s)

		res, runErr := compareOne(ctx, sc, s)
		if res == nil {
			return runErr
		}
		if runErr != nil {
			printError("%s: %v\n", s, runErr)
		}

		rows = append(rows, report.Row{Strategy: s, Stats: res.Stats})
		entry := CompareEntry{Summary: report.Summarize(res.Stats)}
		entry.Strategy = s.String()
		if runErr != nil {
			entry.Error = runErr.Error()
		}
		entries = append(entries, entry)
	}

	if jsonOut {
		return printJSON(entries)
	}
	printInfo("Scenario: %s (%s arena)\n\n", path, sc.Arena)
	if quiet {
		return nil
	}
	return report.WriteComparison(os.Stdout, rows)
}

// compareOne runs sc on its own arena with s as the default strategy.
func compareOne(ctx context.Context, sc *scenario.Scenario, s alloc.Strategy) (*scenario.Result, error) {
	a, release, err := newArenaAllocator(sc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("failed to unmap arena", "error", err)
		}
	}()
	return runScenario(ctx, a, sc, scenario.WithStrategy(s))
}
