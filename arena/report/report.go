// Package report renders allocator statistics for people and for JSON consumers.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// Summary is the machine-readable form of an allocator snapshot.
type Summary struct {
	Strategy       string  `json:"strategy,omitempty"`
	ArenaBytes     int64   `json:"arena_bytes"`
	AllocatedBytes uint64  `json:"allocated_bytes"`
	FreeBytes      uint64  `json:"free_bytes"`
	FreeBlocks     uint64  `json:"free_blocks"`
	LargestFree    uint64  `json:"largest_free"`
	Fragmentation  float64 `json:"fragmentation"`
	Live           uint64  `json:"live_allocations"`
	Frees          uint64  `json:"successful_frees"`
	AllocCalls     uint64  `json:"alloc_calls"`
	AllocFailures  uint64  `json:"alloc_failures"`
	FreeCalls      uint64  `json:"free_calls"`
	FreeFailures   uint64  `json:"free_failures"`
	Splits         uint64  `json:"splits"`
	Merges         uint64  `json:"merges"`
}

// Summarize converts a stats snapshot into a Summary.
func Summarize(s alloc.Stats) Summary {
	return Summary{
		ArenaBytes:     s.ArenaLength,
		AllocatedBytes: s.AllocatedBytes,
		FreeBytes:      s.FreeBytes,
		FreeBlocks:     s.FreeBlocks,
		LargestFree:    s.LargestFree,
		Fragmentation:  Fragmentation(s),
		Live:           s.Live,
		Frees:          s.Frees,
		AllocCalls:     s.AllocCalls,
		AllocFailures:  s.AllocFailures,
		FreeCalls:      s.FreeCalls,
		FreeFailures:   s.FreeFailures,
		Splits:         s.SplitCount,
		Merges:         s.CoalesceForward + s.CoalesceBackward,
	}
}

// Fragmentation returns the external fragmentation of the free space as
// 1 - largest/total: 0 when all free bytes are in one block, approaching 1
// as free space scatters into small blocks.
func Fragmentation(s alloc.Stats) float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.LargestFree)/float64(s.FreeBytes)
}

// printer groups digits the way English readers expect ("65,536").
var printer = message.NewPrinter(language.English)

// Write prints a human-readable summary of s to w.
func Write(w io.Writer, s alloc.Stats) error {
	sum := Summarize(s)
	lines := []struct {
		label string
		value string
	}{
		{"Arena", sizeString(uint64(sum.ArenaBytes))},
		{"Allocated", sizeString(sum.AllocatedBytes)},
		{"Free", sizeString(sum.FreeBytes)},
		{"Free blocks", printer.Sprintf("%d", sum.FreeBlocks)},
		{"Largest free", sizeString(sum.LargestFree)},
		{"Fragmentation", printer.Sprintf("%.1f%%", 100*sum.Fragmentation)},
		{"Live allocations", printer.Sprintf("%d", sum.Live)},
		{"Successful frees", printer.Sprintf("%d", sum.Frees)},
		{"Alloc calls", printer.Sprintf("%d (%d failed)", sum.AllocCalls, sum.AllocFailures)},
		{"Free calls", printer.Sprintf("%d (%d failed)", sum.FreeCalls, sum.FreeFailures)},
		{"Splits / merges", printer.Sprintf("%d / %d", sum.Splits, sum.Merges)},
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range lines {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", l.label, l.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Row is one strategy's outcome in a comparison.
type Row struct {
	Strategy alloc.Strategy
	Stats    alloc.Stats
}

// WriteComparison prints one line per strategy so their fragmentation can be
// compared side by side.
func WriteComparison(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, "STRATEGY\tALLOCATED\tFREE\tFREE BLOCKS\tLARGEST FREE\tFRAG\tFAILED ALLOCS\t"); err != nil {
		return err
	}
	for _, r := range rows {
		sum := Summarize(r.Stats)
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Strategy,
			sizeString(sum.AllocatedBytes),
			sizeString(sum.FreeBytes),
			printer.Sprintf("%d", sum.FreeBlocks),
			sizeString(sum.LargestFree),
			printer.Sprintf("%.1f%%", 100*sum.Fragmentation),
			printer.Sprintf("%d", sum.AllocFailures),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// sizeString renders n as "64 KiB (65,536 B)".
func sizeString(n uint64) string {
	return fmt.Sprintf("%s (%s B)", humanize.IBytes(n), printer.Sprintf("%d", n))
}
