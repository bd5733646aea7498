package forest

import (
	"testing"

	"github.com/dekarrin/nlquery/internal/automaton"
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, tomlSrc string) *automaton.StateTable {
	t.Helper()
	g, err := grammar.LoadBytes([]byte(tomlSrc))
	require.NoError(t, err)
	tbl, err := automaton.Build(g)
	require.NoError(t, err)
	return tbl
}

func Test_Parse_simpleSentence_accepts(t *testing.T) {
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["RI", "like"]
cost = 0
text = "repos I like"

[[grammar.RI]]
rhs = ["repos", "I"]
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("repos I like")
	require.True(t, res.Accepted)
	require.NotNil(t, res.Root)
	assert.Equal(t, "S", res.Root.Symbol.Name)
	assert.Equal(t, 0, res.Root.Start)
	assert.Equal(t, 3, res.Root.Size)
}

func Test_Parse_wrongQuery_notAccepted(t *testing.T) {
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["RI", "like"]
cost = 0

[[grammar.RI]]
rhs = ["repos", "I"]
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("completely different words")
	assert.False(t, res.Accepted)
}

func Test_Parse_ambiguousGrammar_producesSharedForest(t *testing.T) {
	// two rules for S that both match "a b" should share the same SPPF root
	// node and carry two sub-alternatives.
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["AB"]
cost = 0

[[grammar.S]]
rhs = ["A", "B"]
cost = 1

[[grammar.AB]]
rhs = ["a", "b"]
cost = 0

[[grammar.A]]
rhs = ["a"]
cost = 0

[[grammar.B]]
rhs = ["b"]
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("a b")
	require.True(t, res.Accepted)
	assert.GreaterOrEqual(t, len(res.Root.Subs), 2, "expected both S derivations packed into one node")
}

func Test_Parse_intPlaceholder_matchesNumericToken(t *testing.T) {
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["show", "<int>"]
cost = 0

[[grammar.IntLit]]
rhs = ["<int>"]
is_terminal = true
is_placeholder = true
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("show 42")
	require.True(t, res.Accepted)
}

func Test_Parse_negativeInt_rejectedWhenDisallowed(t *testing.T) {
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["show", "<int>"]
cost = 0

[[grammar.IntLit]]
rhs = ["<int>"]
is_terminal = true
is_placeholder = true
cost = 0
`)
	opts := DefaultOptions()
	opts.AllowNegativeIntegers = false
	p := NewParser(tbl, opts)
	res := p.Parse("show -3")
	assert.False(t, res.Accepted)
}

func Test_Parse_unrecognizedToken_deletedOnRetry(t *testing.T) {
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["RI", "like"]
cost = 0

[[grammar.RI]]
rhs = ["repos", "I"]
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("repos um I like")
	require.True(t, res.Accepted)
	assert.Equal(t, DefaultOptions().DeletionCost, res.DeletionCost)
}

func Test_Parse_greedyMultiTokenTerminal_preferredButAmbiguityKept(t *testing.T) {
	// grammar rules stay binary (RHS length <= 2, per the binarized-grammar
	// assumption behind SubAlt's First/Second shape); the ambiguity under
	// test is the 2-word literal "has not" vs. the same two words reached
	// through a nonterminal, both spanning the same three input tokens.
	tbl := buildTable(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["has not", "left"]
cost = 0

[[grammar.S]]
rhs = ["HN", "left"]
cost = 1

[[grammar.HN]]
rhs = ["has", "not"]
cost = 0
`)
	p := NewParser(tbl, DefaultOptions())
	res := p.Parse("has not left")
	require.True(t, res.Accepted)
	assert.GreaterOrEqual(t, len(res.Root.Subs), 2, "expected both derivations of the same span packed together")
}
