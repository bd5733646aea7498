// Package heuristic annotates a parsed SPPF arena with each node's min_cost:
// the cost of its cheapest full resolution, used by the search package as an
// admissible heuristic for A* over the forest. Grounded on
// other_examples/0bdef50f_dhamidi-sai__ebnf-parse-earley.go.go's bottom-up
// cost propagation over a packed Earley forest, generalized from a single
// pass (that forest is acyclic by construction) to the bounded relaxation
// loop below, since unit-production chains here can in principle cycle
// through a shared span — the grammar only forbids the zero-cost case; a
// positive-cost cycle through the same span is still representable in the
// arena and must still converge to a real shortest cost rather than loop.
package heuristic

import (
	"math"

	"github.com/dekarrin/nlquery/internal/forest"
	"github.com/dekarrin/nlquery/internal/grammar"
)

// Inf stands in for "not yet resolved" during relaxation; kept well below
// math.MaxFloat64 so additions of a few such values don't overflow to +Inf.
const Inf = math.MaxFloat64 / 4

// Annotate fills in MinCost on every node and sub-alternative in arena, by
// repeated relaxation (Bellman-Ford style: no edge weight here is negative,
// so at most len(nodes) passes are ever needed to reach the fixpoint,
// whether or not the node graph is acyclic).
func Annotate(arena *forest.Arena) {
	nodes := arena.Nodes()

	for _, n := range nodes {
		if len(n.Subs) > 0 {
			n.MinCost = Inf
		}
	}

	for pass := 0; pass <= len(nodes); pass++ {
		changed := false
		for _, n := range nodes {
			if len(n.Subs) == 0 {
				continue
			}
			best := n.MinCost
			for i := range n.Subs {
				sub := &n.Subs[i]
				cost := cheapestCost(sub.Props) + arena.Get(sub.First).MinCost
				if sub.IsBinary() {
					cost += arena.Get(sub.Second).MinCost
				}
				sub.MinCost = cost
				if cost < best {
					best = cost
				}
			}
			if best < n.MinCost {
				n.MinCost = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// cheapestCost returns the lowest-cost RuleProps in a (possibly collapsed)
// reduction's PropsList, which automaton.Build keeps sorted ascending by
// cost.
func cheapestCost(props []grammar.RuleProps) float64 {
	if len(props) == 0 {
		return 0
	}
	return props[0].Cost
}
