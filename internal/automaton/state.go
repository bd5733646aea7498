package automaton

import "github.com/dekarrin/nlquery/internal/grammar"

// Reduction is a completed item in a state: recognizing RHS fully derives
// LHS. A single Reduction can carry more than one RuleProps when multiple
// insertion rules with identical LHS and non-inserted RHS collapse into one
// parse action.
type Reduction struct {
	LHS      *grammar.Symbol
	RHS      []*grammar.Symbol
	IsBinary bool

	// PropsList holds one entry for an ordinary rule, or several for a
	// collapsed set of insertion rules, sorted by increasing cost (stable).
	PropsList []grammar.RuleProps
}

// Shift is a transition on a symbol to a successor state.
type Shift struct {
	Symbol *grammar.Symbol
	Target int
}

// State is one node of the compiled automaton: whether it is accepting, its
// reductions, and its shifts. Identity is structural — two states with
// identical item sets are merged during construction, so after Build no two
// State values in a StateTable share a canonical key.
type State struct {
	IsFinal    bool
	Reductions []Reduction
	Shifts     []Shift
}

// ShiftOn returns the target state index for symbol, and whether one exists.
func (s *State) ShiftOn(sym *grammar.Symbol) (int, bool) {
	for _, sh := range s.Shifts {
		if sh.Symbol == sym {
			return sh.Target, true
		}
	}
	return 0, false
}

// StateTable is the compiled output of Build: an ordered list of states plus
// the terminal symbol table retained for the parser's input matching.
type StateTable struct {
	States    []*State
	Terminals []*grammar.Symbol
	Grammar   *grammar.Grammar
}
