package search

import (
	"sort"
	"time"

	"github.com/dekarrin/nlquery/internal/forest"
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/qerrors"
	"github.com/dekarrin/nlquery/internal/semantic"
)

// Budget caps how much work a Resolver will do before giving up and
// returning whatever candidates it has assembled so far. A zero Budget is
// unlimited. MaxPops bounds the number of (sub-alternative, RuleProps)
// variants combine()'d across all nodes; Deadline, if non-zero, is checked
// at the same points.
type Budget struct {
	MaxPops  int
	Deadline time.Time
}

func (b Budget) exceeded(pops int) bool {
	if b.MaxPops > 0 && pops > b.MaxPops {
		return true
	}
	if !b.Deadline.IsZero() && time.Now().After(b.Deadline) {
		return true
	}
	return false
}

// Resolver extracts up to K candidates per SPPF node, memoized so a node
// shared by several parents (the whole point of a packed forest) is only
// resolved once.
type Resolver struct {
	arena      *forest.Arena
	k          int
	budget     Budget
	pops       int
	cache      map[forest.NodeID][]Candidate
	inProgress map[forest.NodeID]bool
}

// NewResolver prepares a resolver over an already min_cost-annotated arena,
// with no pop or deadline limit.
func NewResolver(arena *forest.Arena, k int) *Resolver {
	return NewBudgetedResolver(arena, k, Budget{})
}

// NewBudgetedResolver is NewResolver with a cooperative cancellation budget.
// Once the budget is exceeded, KBest calls still in flight stop expanding
// new combinations and return whatever candidates that subtree has already
// accumulated, so a caller always gets the best results found so far rather
// than an error.
func NewBudgetedResolver(arena *forest.Arena, k int, budget Budget) *Resolver {
	if k < 1 {
		k = 1
	}
	return &Resolver{
		arena:      arena,
		k:          k,
		budget:     budget,
		cache:      make(map[forest.NodeID][]Candidate),
		inProgress: make(map[forest.NodeID]bool),
	}
}

// KBest returns the best (lowest-cost) candidates for the forest rooted at
// id, sorted ascending by cost, with at most K entries.
func (r *Resolver) KBest(id forest.NodeID) []Candidate {
	if id == forest.NoNode {
		return nil
	}
	if cands, ok := r.cache[id]; ok {
		return cands
	}
	if r.inProgress[id] {
		// A positive-cost cycle through this span; break it by treating the
		// in-flight node as contributing nothing rather than recursing
		// forever.
		return nil
	}
	r.inProgress[id] = true
	cands := r.resolveNode(r.arena.Get(id))
	delete(r.inProgress, id)
	r.cache[id] = cands
	return cands
}

func (r *Resolver) resolveNode(n *forest.Node) []Candidate {
	if len(n.Subs) == 0 {
		return r.leafCandidate(n)
	}

	all := []Candidate{}
	for _, sub := range n.Subs {
		for _, props := range sub.Props {
			if r.budget.exceeded(r.pops) {
				break
			}
			r.pops++
			all = append(all, r.combine(sub, props)...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Cost < all[j].Cost })
	if len(all) > r.k {
		all = all[:r.k]
	}
	return all
}

func (r *Resolver) leafCandidate(n *forest.Node) []Candidate {
	var sems []*semantic.Semantic
	if s := forest.SemanticArgFor(n); s != nil {
		sems = []*semantic.Semantic{s}
	}
	var tokens []string
	if n.Lexeme != "" {
		tokens = []string{n.Lexeme}
	}
	return []Candidate{{Cost: n.MinCost, Semantics: sems, Tokens: tokens}}
}

// combine cross-products the left and right child candidate lists for one
// (sub, props) variant, applying props' own cost, semantic, and text
// contribution to each pairing. A transposition rule swaps which child
// plays "left" and which plays "right" for semantics and text purposes,
// since sub.First/sub.Second are the literal (possibly non-canonical) parse
// order and props.Cost already carries the rule's own small penalty for
// accepting it.
func (r *Resolver) combine(sub forest.SubAlt, props grammar.RuleProps) []Candidate {
	leftCands := r.KBest(sub.First)
	if len(leftCands) == 0 {
		leftCands = []Candidate{{}}
	}

	rightCands := []Candidate{{}}
	if sub.IsBinary() {
		rightCands = r.KBest(sub.Second)
		if len(rightCands) == 0 {
			rightCands = []Candidate{{}}
		}
	}

	transpose := props.IsTransposition && sub.IsBinary()

	var out []Candidate
	for _, a := range leftCands {
		for _, b := range rightCands {
			lc, rc := a, b
			if transpose {
				lc, rc = b, a
			}
			sems, err := combineSemantics(props, lc.Semantics, rc.Semantics)
			if err != nil {
				continue // illegal combination, drop the branch
			}
			tokens, ops := combineText(props, lc, rc)
			out = append(out, Candidate{
				Cost:      lc.Cost + rc.Cost + props.Cost,
				Semantics: sems,
				Tokens:    tokens,
				Ops:       ops,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	if len(out) > r.k {
		out = out[:r.k]
	}
	return out
}

// combineSemantics merges a reduction's two children's semantics, splices in
// any InsertedSemantic, and applies the rule's own semantic function (or
// passes the merge through unchanged for a structural/SemanticIsRHS rule).
func combineSemantics(props grammar.RuleProps, left, right []*semantic.Semantic) ([]*semantic.Semantic, error) {
	merged, err := semantic.MergeRHS(left, right)
	if err != nil {
		return nil, err
	}
	merged = semantic.ResolveAnaphora(merged)

	if ref := props.InsertedSemantic; ref != nil {
		ins := refToSemantic(ref)
		idx := 0
		if props.InsertionIndex != nil {
			idx = *props.InsertionIndex
		}
		merged, err = insertSemanticAt(merged, ins, idx)
		if err != nil {
			return nil, err
		}
	}

	if props.SemanticIsRHS || props.Semantic == nil {
		return merged, nil
	}

	if props.Semantic.IsLeaf() {
		return append(append([]*semantic.Semantic(nil), merged...), refToSemantic(props.Semantic)), nil
	}

	return semantic.Reduce(props.Semantic.Func, merged)
}

func refToSemantic(ref *grammar.SemanticRef) *semantic.Semantic {
	if ref.Func != nil {
		return semantic.ArgFromDef(ref.Func)
	}
	if ref.ArgDef != nil {
		return semantic.ArgFromDef(ref.ArgDef)
	}
	return semantic.Leaf(ref.Name)
}

func insertSemanticAt(items []*semantic.Semantic, item *semantic.Semantic, idx int) ([]*semantic.Semantic, error) {
	if semantic.IsForbiddenMultiple(items, item.Def) {
		return nil, qerrors.Softf("inserted semantic %s conflicts with an existing forbids-multiple child", semantic.ToString(item))
	}
	if idx <= 0 {
		return append([]*semantic.Semantic{item}, items...), nil
	}
	return append(append([]*semantic.Semantic(nil), items...), item), nil
}
