// Package scenario runs scripted allocate/free workloads against an Allocator.
//
// # Overview
//
// A scenario is a YAML document naming an arena size, a default placement
// strategy and one or more workers. Each worker is a list of operations run
// in order by its own goroutine; workers run concurrently against the same
// allocator.
//
//	arena: 64KiB
//	strategy: best-fit
//	check_invariants: true
//	workers:
//	  - name: main
//	    ops:
//	      - {op: alloc, label: a, size: 1KiB}
//	      - {op: alloc, label: b, size: 100, strategy: worst-fit}
//	      - {op: free, label: a}
//	      - {op: free, label: a, expect: double-free}
//	      - {op: random, count: 500, min: 1, max: 512, seed: 7}
//
// # Operations
//
//   - alloc: reserve size bytes and bind the address to label
//   - free: release the address bound to label
//   - random: count interleaved allocations of min..max bytes and frees,
//     then free whatever is still held
//   - destroy: destroy the allocator
//   - init: re-initialise the allocator over the same arena
//
// # Expectations
//
// Every alloc, free, destroy and init step has an expected outcome, "ok" by
// default. Other values are out-of-memory, double-free, invalid-pointer,
// not-initialized, use-after-destroy and any. A mismatch stops the run with a
// *StepError.
package scenario
