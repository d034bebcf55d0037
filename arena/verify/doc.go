// Package verify provides validation functions for allocator ledgers.
//
// # Overview
//
// These checks confirm that a ledger still describes its arena correctly.
// Tests use them after every step, and scenario runs use them when
// check_invariants is set.
//
// Validation categories:
//   - Partition: blocks cover the arena exactly, ascending, no gaps or overlaps
//   - BlockSize: every block is non-empty
//   - Coalesce: no two neighbouring blocks are both free
//   - Accounting: allocated + free bytes equal the arena length, live counter
//     matches the allocated block count
//
// # Quick Start
//
//	if err := verify.Allocator(a); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// Partition and Coalesced can be called separately on a []alloc.Block,
// for example when inspecting a ledger mid-way through a hand-built layout.
//
// # ValidationError
//
// Every failure is a *ValidationError carrying the failed category in Type
// and the offending block index in Index (-1 when not block-specific).
package verify
