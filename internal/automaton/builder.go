// Package automaton compiles a grammar into an LR(0)-style state table: a
// set of states, each with a list of reductions and a list of shifts, one
// state marked final/accepting. It is grounded on
// internal/ictiobus/automaton's canonical-item-set construction (kernel
// closure, structural state merging) generalized from LALR/CLR lookahead
// sets down to the plain LR(0) cores this package needs, and on
// internal/tunascript/parser.go's ConstructSimpleLRParseTable for the
// reduction/shift extraction shape.
package automaton

import (
	"sort"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/qerrors"
)

// augmentedLHS is the synthetic left-hand symbol of the seed item
// `[->. S]`; it is never interned into the grammar's symbol table.
const augmentedLHS = ""

// Build compiles g into a StateTable. It never mutates g.
func Build(g *grammar.Grammar) (*StateTable, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	startSym, ok := g.Symbols[g.Start]
	if !ok {
		return nil, qerrors.Fatal("grammar load error", "start symbol has no registered grammar.Symbol")
	}

	aug := &grammar.Symbol{Name: augmentedLHS, Index: -1}
	seed := item{lhs: aug, rhs: []*grammar.Symbol{startSym}, dot: 0, rule: nil}

	b := &builder{
		g:       g,
		indexOf: make(map[string]int),
		table:   &StateTable{Grammar: g, Terminals: g.Terminals()},
	}

	kernel := newItemSet()
	kernel.add(seed)
	if _, err := b.stateFor(kernel); err != nil {
		return nil, err
	}

	return b.table, nil
}

type builder struct {
	g       *grammar.Grammar
	indexOf map[string]int // canonical kernel key -> state index
	table   *StateTable
}

// stateFor returns the index of the state for the given kernel, building it
// (and recursively its successors) if it doesn't exist yet. Structural
// equality of the kernel's canonical key is what merges states.
func (b *builder) stateFor(kernel *itemSet) (int, error) {
	key := kernel.canonicalKey()
	if idx, ok := b.indexOf[key]; ok {
		return idx, nil
	}

	closure := b.closureOf(kernel)

	st := &State{}
	idx := len(b.table.States)
	b.table.States = append(b.table.States, st)
	b.indexOf[key] = idx

	// Reductions: every closure item at end-of-RHS whose rule is real (not
	// the augmented seed) contributes a reduction. Items with identical
	// (LHS, RHS) signature collapse into one Reduction carrying an ordered
	// PropsList (multiple insertion-rule variants sharing a shape).
	bySignature := make(map[string]*Reduction)
	var sigOrder []string
	for _, it := range closure.items {
		if !it.atEnd() {
			continue
		}
		if it.lhs == nil || it.lhs.Name == augmentedLHS {
			st.IsFinal = true
			continue
		}
		sig := reductionSignature(it)
		red, ok := bySignature[sig]
		if !ok {
			red = &Reduction{LHS: it.lhs, RHS: it.rhs, IsBinary: len(it.rhs) == 2}
			bySignature[sig] = red
			sigOrder = append(sigOrder, sig)
		}
		red.PropsList = append(red.PropsList, it.rule.Props)
	}
	for _, sig := range sigOrder {
		red := bySignature[sig]
		sort.SliceStable(red.PropsList, func(i, j int) bool {
			return red.PropsList[i].Cost < red.PropsList[j].Cost
		})
		st.Reductions = append(st.Reductions, *red)
	}

	// Shifts: group closure items not at end by their next symbol, advance
	// each, and recurse on the resulting kernel.
	bySymbol := make(map[*grammar.Symbol]*itemSet)
	var symOrder []*grammar.Symbol
	for _, it := range closure.items {
		if it.atEnd() {
			continue
		}
		next := it.nextSymbol()
		ks, ok := bySymbol[next]
		if !ok {
			ks = newItemSet()
			bySymbol[next] = ks
			symOrder = append(symOrder, next)
		}
		ks.add(it.advanced())
	}
	for _, sym := range symOrder {
		targetIdx, err := b.stateFor(bySymbol[sym])
		if err != nil {
			return 0, err
		}
		st.Shifts = append(st.Shifts, Shift{Symbol: sym, Target: targetIdx})
	}

	return idx, nil
}

// reductionSignature gives the (LHS, RHS) structural key used to collapse
// same-shaped reductions (e.g. a family of insertion-rule variants) into one
// parse action.
func reductionSignature(it item) string {
	key := it.lhs.Name + "->"
	for _, s := range it.rhs {
		key += "," + s.Name
	}
	return key
}

// closureOf expands a kernel by repeatedly adding, for every item whose dot
// precedes a nonterminal X, the dot-0 items of every rule producing X.
func (b *builder) closureOf(kernel *itemSet) *itemSet {
	closure := newItemSet()
	for _, it := range kernel.items {
		closure.add(it)
	}

	worklist := append([]item(nil), kernel.items...)
	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]

		next := it.nextSymbol()
		if next == nil || next.Terminal {
			continue
		}
		for _, rule := range b.g.RulesFor(next.Name) {
			rhsSymbols := make([]*grammar.Symbol, len(rule.RHS))
			for i, name := range rule.RHS {
				rhsSymbols[i] = b.g.SymbolFor(name)
			}
			newItem := item{lhs: next, rhs: rhsSymbols, dot: 0, rule: rule}
			if closure.add(newItem) {
				worklist = append(worklist, newItem)
			}
		}
	}

	return closure
}
