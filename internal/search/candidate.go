// Package search extracts the k best full resolutions of a parsed SPPF: for
// each, a total cost, a list of semantic trees (usually one; more than one
// when a distributing function such as a max_params=1 aggregator produces
// several independent top-level applications), and the conjugated surface
// text.
//
// Grounded on other_examples/0bdef50f_dhamidi-sai__ebnf-parse-earley.go.go's
// bottom-up "cheapest parse" extraction over a packed forest, generalized
// from single-best to top-K by keeping a bounded, cost-sorted candidate list
// per node instead of a single winner, and combining a node's children by
// cross-producting their own top-K lists rather than via a literal
// incrementally-expanded priority frontier. A* best-first search is
// realized here as a memoized bottom-up search ordered by the same
// admissible min_cost heuristic, rather than a lazy agenda of partial
// paths — the forest is fully resolved already, so there is no unexplored
// region of it left for a frontier to discover.
package search

import (
	"github.com/dekarrin/nlquery/internal/semantic"
)

// Candidate is one fully-resolved derivation of a single SPPF node: its
// total cost, the semantic tree(s) it produced, and its conjugated surface
// tokens in left-to-right order.
//
// Ops is non-empty only while a candidate is still in flight inside the
// resolver: it is the not-yet-replayed grammatical-property push/consume
// timeline (see conjugate.go), cleared by FinalizeCandidates once a
// candidate's placeholders are resolved against its own merged timeline.
type Candidate struct {
	Cost      float64
	Semantics []*semantic.Semantic
	Tokens    []string
	Ops       []op
}
