package search

import (
	"testing"
	"time"

	"github.com/dekarrin/nlquery/internal/automaton"
	"github.com/dekarrin/nlquery/internal/forest"
	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/heuristic"
	"github.com/dekarrin/nlquery/internal/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveQuery(t *testing.T, tomlSrc, query string, k int) []Candidate {
	t.Helper()
	g, err := grammar.LoadBytes([]byte(tomlSrc))
	require.NoError(t, err)
	tbl, err := automaton.Build(g)
	require.NoError(t, err)
	p := forest.NewParser(tbl, forest.DefaultOptions())
	res := p.Parse(query)
	require.True(t, res.Accepted)
	heuristic.Annotate(res.Arena)
	r := NewResolver(res.Arena, k)
	return r.KBest(res.Root.ID)
}

func Test_KBest_leafSemantic(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[semantics.me]
cost = 0
min_params = 0
max_params = 0
is_arg = true

[[grammar.S]]
rhs = ["I"]
cost = 0
semantic = { name = "me" }
`, "I", 3)
	require.NotEmpty(t, cands)
	assert.Equal(t, "me", semantic.ToString(cands[0].Semantics[0]))
}

func Test_KBest_ordersCheapestFirst(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["AB"]
cost = 5

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
`, "a b", 5)
	require.Len(t, cands, 2)
	assert.Equal(t, 1.0, cands[0].Cost)
	assert.Equal(t, 5.0, cands[1].Cost)
}

func Test_KBest_appliesSemanticFunction(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[semantics.me]
cost = 0
min_params = 0
max_params = 0
is_arg = true

[semantics.repos-liked]
cost = 1
min_params = 1
max_params = 1

[[grammar.S]]
rhs = ["Subj", "liked"]
cost = 0
semantic = { func = "repos-liked" }

[[grammar.Subj]]
rhs = ["I"]
cost = 0
semantic = { name = "me" }
`, "I liked", 3)
	require.NotEmpty(t, cands)
	assert.Equal(t, "repos-liked(me)", semantic.ToString(cands[0].Semantics[0]))
}

func Test_KBest_insertionSplicesTextAndSemantic(t *testing.T) {
	zero := 0
	cands := resolveQuery(t, `
start_symbol = "S"

[semantics.negate]
cost = 1
min_params = 0
max_params = 0
is_arg = true

[[grammar.S]]
rhs = ["left"]
cost = 1
text = "has not"
inserted_semantic = { name = "negate" }
insertion_index = 0
`, "left", 3)
	require.NotEmpty(t, cands)
	_ = zero
	assert.Contains(t, cands[0].Tokens, "has")
	found := false
	for _, s := range cands[0].Semantics {
		if semantic.ToString(s) == "negate" {
			found = true
		}
	}
	assert.True(t, found, "expected the inserted semantic to appear alongside the base semantic")
}

func Test_KBest_ambiguousLegalityPrunesBadCombination(t *testing.T) {
	// "only-one" forbids a second occurrence; the only derivation has both
	// children contribute it, so it should be dropped and nothing remains.
	cands := resolveQuery(t, `
start_symbol = "S"

[semantics.only-one]
cost = 0
min_params = 0
max_params = 0
is_arg = true
forbids_multiple = true

[[grammar.S]]
rhs = ["X", "Y"]
cost = 0

[[grammar.X]]
rhs = ["x"]
cost = 0
semantic = { func = "only-one" }

[[grammar.Y]]
rhs = ["y"]
cost = 0
semantic = { func = "only-one" }
`, "x y", 5)
	assert.Empty(t, cands, "both children claim the same forbids-multiple leaf, so the merge should be illegal")
}

func Test_Resolver_expiredDeadlineStillReturnsBestSoFar(t *testing.T) {
	g, err := grammar.LoadBytes([]byte(`
start_symbol = "S"

[[grammar.S]]
rhs = ["AB"]
cost = 5

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
`))
	require.NoError(t, err)
	tbl, err := automaton.Build(g)
	require.NoError(t, err)
	p := forest.NewParser(tbl, forest.DefaultOptions())
	res := p.Parse("a b")
	require.True(t, res.Accepted)
	heuristic.Annotate(res.Arena)

	r := NewBudgetedResolver(res.Arena, 5, Budget{Deadline: time.Now().Add(-time.Second)})
	cands := r.KBest(res.Root.ID)
	assert.NotNil(t, cands, "an already-expired deadline should still return a (possibly empty) slice, never block")
}

func Test_Budget_exceeded_maxPops(t *testing.T) {
	b := Budget{MaxPops: 2}
	assert.False(t, b.exceeded(2))
	assert.True(t, b.exceeded(3))
}

func Test_combine_transpositionRule_swapsChildTextOrder(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["B", "A"]
cost = 0.2
is_transposition = true

[[grammar.A]]
rhs = ["a"]
cost = 0

[[grammar.B]]
rhs = ["b"]
cost = 0
`, "b a", 3)
	require.NotEmpty(t, cands)
	assert.Equal(t, []string{"a", "b"}, cands[0].Tokens, "a transposition rule should canonicalize the swapped child order")
	assert.Equal(t, 0.2, cands[0].Cost)
}

// Test_gramPropsList_crossSiblingAgreement exercises the scenario the
// cross-node agreement mechanism exists for: a subject pushes a
// person-number constraint on its own unrelated sibling rule, and a verb
// deeper in the other child's subtree, discovered independently, is the one
// that consumes it during conjugation.
func Test_gramPropsList_crossSiblingAgreement(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["Subj", "VP"]
cost = 0

[[grammar.Subj]]
rhs = ["they"]
cost = 0
gram_props = { person_number = "pl" }

[[grammar.VP]]
rhs = ["contribute"]
cost = 0
text = { pl = "contribute", three-sg = "contributes" }
`, "they contribute", 3)
	require.NotEmpty(t, cands)

	finalized := FinalizeCandidates(cands)
	require.NotEmpty(t, finalized, "the subject's pushed person-number should let the verb's text resolve")
	assert.Equal(t, []string{"they", "contribute"}, finalized[0].Tokens)
}

func Test_gramPropsList_unmatchedInflectionDropsCandidate(t *testing.T) {
	cands := resolveQuery(t, `
start_symbol = "S"

[[grammar.S]]
rhs = ["VP"]
cost = 0

[[grammar.VP]]
rhs = ["contribute"]
cost = 0
text = { three-sg = "contributes" }
`, "contribute", 3)
	require.NotEmpty(t, cands, "resolution itself still succeeds; the deferred text is what fails")

	finalized := FinalizeCandidates(cands)
	assert.Empty(t, finalized, "no gram_props frame exists to supply the only available inflected form")
}
