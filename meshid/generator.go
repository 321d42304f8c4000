// Package meshid provides the process-wide monotone identifier generator
// shared by nodes, mirrors, and links.
//
// Determinism:
//   - IDs are strictly increasing integers starting at 1.
//   - Two Generators seeded identically (i.e. both freshly constructed)
//     and driven by the same call sequence produce identical ID streams;
//     this is what lets two simulation runs over identical inputs yield
//     isomorphic graphs with identical link IDs (spec §5).
//
// Concurrency:
//   - Next() is safe for concurrent use via sync/atomic, though the
//     planner itself is single-threaded (spec §5); the atomic counter
//     costs nothing and avoids a footgun if a caller ever parallelizes.
package meshid

import "sync/atomic"

// Generator is a monotone, non-reentrant source of fresh integer IDs.
// The zero value is ready to use and starts handing out 1, 2, 3, ...
type Generator struct {
	next uint64 // atomic counter; Next() reserves next+1
}

// NewGenerator returns a Generator whose first Next() call yields 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next reserves and returns the next ID in the monotone sequence.
//
// Complexity: O(1).
func (g *Generator) Next() int64 {
	// Atomically reserve the next sequence number; first call returns 1.
	return int64(atomic.AddUint64(&g.next, 1))
}

// Peek reports the most recently issued ID without reserving a new one.
// Returns 0 if Next has never been called.
func (g *Generator) Peek() int64 {
	return int64(atomic.LoadUint64(&g.next))
}
