// Package grammar holds the immutable, process-wide grammar model: the
// symbol table, per-symbol rule lists, semantic function definitions, start
// symbol, and placeholder markers. Everything here is built once by Load and
// never mutated afterward; it is safe to share across concurrent parse calls
// without locks.
package grammar

import (
	"fmt"
	"sort"

	"github.com/dekarrin/nlquery/internal/qerrors"
)

// VerbForm is one of the closed set of conjugation keys a rule's text object
// may be keyed by.
type VerbForm string

const (
	Infinitive         VerbForm = "infinitive"
	Past               VerbForm = "past"
	Present            VerbForm = "present"
	Future             VerbForm = "future"
	PastPerfect        VerbForm = "past-perfect"
	PastParticiple     VerbForm = "past-participle"
	Participle         VerbForm = "participle"
	PresentParticiple  VerbForm = "present-participle"
	PresentSubjunctive VerbForm = "present-subjunctive"
)

// PersonNumber is one of the closed set of person/number agreement keys.
type PersonNumber string

const (
	OneSingular   PersonNumber = "one-sg"
	ThreeSingular PersonNumber = "three-sg"
	Plural        PersonNumber = "pl"
)

// GrammaticalCase is one of the closed set of case agreement keys.
type GrammaticalCase string

const (
	Nominative GrammaticalCase = "nom"
	Objective  GrammaticalCase = "obj"
)

// GramProps is the set of grammatical-form constraints a rule can require of
// a not-yet-emitted token.
type GramProps struct {
	VerbForm        VerbForm
	PersonNumber    PersonNumber
	GrammaticalCase GrammaticalCase

	// AcceptPastAsPresent and NoPresentPerfect are independent knobs;
	// neither implies the other.
	AcceptPastAsPresent bool
	NoPresentPerfect    bool
}

// Keys returns the non-empty form keys this GramProps carries, in the fixed
// verb-form / person-number / grammatical-case order used when matching
// against a text object during emission.
func (gp GramProps) Keys() []string {
	var keys []string
	if gp.VerbForm != "" {
		keys = append(keys, string(gp.VerbForm))
	}
	if gp.PersonNumber != "" {
		keys = append(keys, string(gp.PersonNumber))
	}
	if gp.GrammaticalCase != "" {
		keys = append(keys, string(gp.GrammaticalCase))
	}
	return keys
}

// TextKind distinguishes the three shapes a rule's text may take.
type TextKind int

const (
	TextNone TextKind = iota
	TextPlain
	TextInflected
	TextSequence
)

// Text is the plain string, inflection table, or sequence of such entries a
// rule may emit.
type Text struct {
	Kind      TextKind
	Plain     string
	Inflected map[string]string // form key -> surface string
	Sequence  []Text
}

// IsZero reports whether this Text carries no content (rule has no text).
func (t Text) IsZero() bool {
	return t.Kind == TextNone
}

// SemanticRef is either a leaf argument (Name set, Func empty) or an
// application of a named semantic function (Func set). Leaf argument
// objects of the same Name are shared (the same *SemanticRef pointer) across
// every rule that references them.
type SemanticRef struct {
	Func *SemanticDef // non-nil for a function application
	Name string       // argument/leaf name; meaningful when Func == nil

	// ArgDef is set when a leaf ref's Name matches an is_arg entry in the
	// semantics table, carrying that entry's cost and anaphoric flag onto
	// the leaf it produces. A leaf ref with no matching table entry (e.g. an
	// <int> placeholder's literal digits) leaves this nil.
	ArgDef *SemanticDef
}

func (r *SemanticRef) IsLeaf() bool {
	return r != nil && r.Func == nil
}

// SemanticDef is a semantic function definition from the grammar artifact's
// `semantics` table.
type SemanticDef struct {
	Name            string
	Cost            float64
	MinParams       int
	MaxParams       int
	ForbidsMultiple bool
	IsArg           bool
	Anaphoric       bool

	// Commutative marks an aggregator whose children's order does not
	// matter for semantic identity (e.g. "intersect", "and"); ToString
	// sorts such children before joining, and Flatten merges nested
	// applications of the same function into one level.
	Commutative bool
}

// RuleProps bundles a rule's side data. All fields beyond Cost are
// optional; presence is tracked explicitly (pointers / zero-kind) rather
// than by runtime type-switching.
type RuleProps struct {
	Cost             float64
	Text             Text
	Semantic         *SemanticRef
	InsertedSemantic *SemanticRef
	SemanticIsRHS    bool
	InsertionIndex   *int // 0 or 1; nil if this is not an insertion rule
	IsTransposition  bool
	GramProps        *GramProps
}

// IsInsertion reports whether this rule's text includes material absent from
// the input ("Insertion rule").
func (rp RuleProps) IsInsertion() bool {
	return rp.InsertionIndex != nil
}

// Symbol is a grammar symbol: identity is its interned name plus
// terminal-or-nonterminal flag.
type Symbol struct {
	Name        string
	Terminal    bool
	Placeholder bool // true for <int> and entity-category placeholders
	TokenWidth  int  // > 1 for multi-token literal terminals
	Index       int  // stable ordering index, used only by the automaton builder
}

// Rule is a single LHS -> RHS production with its RuleProps.
type Rule struct {
	LHS   string
	RHS   []string
	Props RuleProps
}

// IsBinary reports whether this rule's RHS has exactly two symbols.
func (r Rule) IsBinary() bool {
	return len(r.RHS) == 2
}

// Grammar is the immutable, process-wide grammar model.
type Grammar struct {
	Symbols          map[string]*Symbol
	Rules            map[string][]*Rule // LHS name -> its rules, in artifact order
	Semantics        map[string]*SemanticDef
	Start            string
	EntityCategories map[string][]EntityRecord
}

// EntityRecord is one entity in an entity category: a canonical display name
// plus every alias that should resolve to it during entity matching.
type EntityRecord struct {
	Canonical string
	Names     []string
}

// SymbolFor returns the symbol with the given name, creating and registering
// a new one (defaulting to nonterminal) if it is not yet known. Used while
// building the Grammar from its artifact so that every RHS reference shares
// a single Symbol handle.
func (g *Grammar) SymbolFor(name string) *Symbol {
	if sym, ok := g.Symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Index: len(g.Symbols)}
	g.Symbols[name] = sym
	return sym
}

// Terminals returns every terminal symbol in stable index order, the table
// retained post-compilation for the parser's input matching.
func (g *Grammar) Terminals() []*Symbol {
	var terms []*Symbol
	for _, sym := range g.Symbols {
		if sym.Terminal {
			terms = append(terms, sym)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Index < terms[j].Index })
	return terms
}

// RulesFor returns the rules for a nonterminal LHS, or nil if it has none.
func (g *Grammar) RulesFor(lhs string) []*Rule {
	return g.Rules[lhs]
}

// Validate checks the fatal grammar-load invariants: every rule's semantic
// reference resolves, the start symbol is set and has rules, and no
// zero-cost cycle exists among unit productions (a nonterminal that can
// derive itself via only zero-cost rules, which would make the automaton and
// the A* heuristic unsound).
func (g *Grammar) Validate() error {
	if g.Start == "" {
		return qerrors.Fatal("grammar load error", "no start symbol specified")
	}
	if _, ok := g.Rules[g.Start]; !ok {
		return qerrors.Fatal("grammar load error", fmt.Sprintf("start symbol %q has no rules", g.Start))
	}

	for lhs, rules := range g.Rules {
		for _, r := range rules {
			if len(r.RHS) == 0 {
				return qerrors.Fatal("grammar load error", fmt.Sprintf("rule %q -> <empty> is malformed", lhs))
			}
			if ref := r.Props.Semantic; ref != nil && ref.Func != nil {
				if _, ok := g.Semantics[ref.Func.Name]; !ok {
					return qerrors.Fatal("grammar load error", fmt.Sprintf("rule %q references unknown semantic function %q", lhs, ref.Func.Name))
				}
			}
			if ref := r.Props.InsertedSemantic; ref != nil && ref.Func != nil {
				if _, ok := g.Semantics[ref.Func.Name]; !ok {
					return qerrors.Fatal("grammar load error", fmt.Sprintf("rule %q references unknown inserted semantic function %q", lhs, ref.Func.Name))
				}
			}
			if idx := r.Props.InsertionIndex; idx != nil && *idx != 0 && *idx != 1 {
				return qerrors.Fatal("grammar load error", fmt.Sprintf("rule %q has invalid insertion_index %d", lhs, *idx))
			}
		}
	}

	if cyc := g.findZeroCostCycle(); cyc != "" {
		return qerrors.Fatal("grammar load error", fmt.Sprintf("zero-cost unit-production cycle through %q", cyc))
	}

	return nil
}

// findZeroCostCycle detects a nonterminal reachable from itself via a chain
// of single-symbol (unit) productions whose costs all sum to zero, which
// would make heuristic annotation loop forever. Returns the offending
// nonterminal name, or "" if none exists.
func (g *Grammar) findZeroCostCycle() string {
	for start := range g.Rules {
		visited := map[string]bool{start: true}
		stack := []string{start}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, r := range g.Rules[cur] {
				if len(r.RHS) != 1 || r.Props.Cost != 0 {
					continue
				}
				next := r.RHS[0]
				if next == start {
					return start
				}
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
	}
	return ""
}
