// Package forest implements the shared packed parse forest (SPPF) and
// graph-structured stack (GSS) that back the generalized bottom-up parser.
// Grounded on internal/tunascript/parser.go's LRParse single-stack loop,
// generalized from one deterministic stack frame to a GSS of merged frames,
// with node/edge dedup keyed the way
// other_examples/0bdef50f_dhamidi-sai__ebnf-parse-earley.go.go's
// ItemSet.Add dedups Earley items — by a string fingerprint of the
// structural identity.
package forest

import (
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/util"
)

// NodeID is an arena index identifying an SPPF node.
type NodeID int

// NoNode is the sentinel for "no node" (e.g. an epsilon child); it is -1
// because 0 is a valid arena index.
const NoNode NodeID = -1

// SubAlt is one way to derive a node: a first child, an optional second
// child ('next', set only for a binary sub), and the reduction's RuleProps
// (possibly several, for a collapsed insertion family). MinCost is filled in
// by the heuristic package's annotation pass.
type SubAlt struct {
	First   NodeID
	Second  NodeID // NoNode for a unary sub
	Props   []grammar.RuleProps
	MinCost float64
}

// IsBinary reports whether this sub-alternative has a second child.
func (s SubAlt) IsBinary() bool {
	return s.Second != NoNode
}

// Node is an SPPF node: a symbol, the span of input it covers, and every
// sub-alternative that derives it. A node exists at most once for a given
// (symbol, start, size) triple within one parse.
type Node struct {
	ID      NodeID
	Symbol  *grammar.Symbol
	Start   int
	Size    int
	Subs    []SubAlt
	MinCost float64

	// Lexeme is the literal matched surface text for a terminal leaf node,
	// needed at result-assembly/conjugation time when the rule that shifted
	// this terminal carries no RuleProps.Text (plain passthrough tokens).
	Lexeme string

	// leafSemantic is set on terminal nodes produced by the <int> or entity
	// placeholders, which emit a semantic argument directly from the match
	// rather than from a rule's RuleProps.Semantic.
	leafSemanticName string
	hasLeafSemantic  bool
}

// LeafSemanticName returns the semantic argument name this terminal node
// should contribute (the literal digits for <int>, the canonical entity name
// for an entity-category match), and whether it has one at all.
func (n *Node) LeafSemanticName() (string, bool) {
	return n.leafSemanticName, n.hasLeafSemantic
}

// Arena owns every SPPF node created during one parse. It is not safe for
// concurrent use; each query gets its own Arena.
type Arena struct {
	nodes []*Node
	index util.VSet[NodeID]
}

// NewArena returns an empty forest arena.
func NewArena() *Arena {
	return &Arena{index: util.NewVSet[NodeID]()}
}

// Nodes returns every node created in this arena, in creation order.
func (a *Arena) Nodes() []*Node {
	return a.nodes
}

// Get returns the node for id.
func (a *Arena) Get(id NodeID) *Node {
	return a.nodes[id]
}

// GetOrCreate returns the existing node for (symbol, start, size), or
// creates a new one.
func (a *Arena) GetOrCreate(symbol *grammar.Symbol, start, size int) *Node {
	key := util.Fingerprint(symbol.Name, start, size)
	if a.index.Has(key) {
		return a.nodes[a.index.Get(key)]
	}
	n := &Node{ID: NodeID(len(a.nodes)), Symbol: symbol, Start: start, Size: size}
	a.nodes = append(a.nodes, n)
	a.index.Set(key, n.ID)
	return n
}

// AddSub appends a sub-alternative to n, deduplicating by structural
// identity within the same node: same first child, same second child, and
// Props of the same length whose entries pairwise either share an address
// or carry equal costs.
func (n *Node) AddSub(sub SubAlt) {
	for _, existing := range n.Subs {
		if existing.First == sub.First && existing.Second == sub.Second && sameProps(existing.Props, sub.Props) {
			return
		}
	}
	n.Subs = append(n.Subs, sub)
}

func sameProps(a, b []grammar.RuleProps) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if &a[i] != &b[i] && (a[i].Cost != b[i].Cost) {
			return false
		}
	}
	return true
}
