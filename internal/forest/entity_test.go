package forest

import (
	"testing"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEntityGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		EntityCategories: map[string][]grammar.EntityRecord{
			"repo": {
				{Canonical: "dekarrin/tunaq", Names: []string{"tunaq", "tuna q"}},
				{Canonical: "dekarrin/nlquery", Names: []string{"nlquery"}},
			},
		},
	}
}

func Test_BuildEntityIndex_exactMultiWordMatch(t *testing.T) {
	idx := BuildEntityIndex(buildEntityGrammar())["repo"]
	require.NotNil(t, idx)

	tokens := Tokenize("show me tuna q please")
	matches := idx.Lookup(tokens, 2, 4, 0.34, 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "dekarrin/tunaq", matches[0].Canonical)
	assert.Equal(t, 2, matches[0].Width)
	assert.Equal(t, 0.0, matches[0].Cost, "an exact word-set match costs nothing")
}

func Test_EntityIndex_Lookup_belowThresholdIsDropped(t *testing.T) {
	idx := BuildEntityIndex(buildEntityGrammar())["repo"]

	tokens := Tokenize("show me something unrelated")
	matches := idx.Lookup(tokens, 2, 4, 0.34, 3)
	assert.Empty(t, matches)
}

func Test_EntityIndex_Lookup_exactAliasRanksAheadOfPartialWindow(t *testing.T) {
	idx := BuildEntityIndex(buildEntityGrammar())["repo"]

	// the one-word window "tunaq" hits the alias "tunaq" exactly, while the
	// two-word window "tunaq now" only half-overlaps it and carries a
	// penalty; the exact, zero-cost match sorts first.
	tokens := Tokenize("look at tunaq now")
	matches := idx.Lookup(tokens, 2, 4, 0.2, 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "dekarrin/tunaq", matches[0].Canonical)
	assert.Equal(t, 0.0, matches[0].Cost)
}

func Test_EntityIndex_Lookup_nilIndexReturnsNil(t *testing.T) {
	var idx *EntityIndex
	assert.Nil(t, idx.Lookup(Tokenize("anything"), 0, 4, 0.3, 3))
}

func Test_overlapScore_symmetricJaccard(t *testing.T) {
	assert.Equal(t, 1.0, overlapScore([]string{"a", "b"}, []string{"a", "b"}))
	assert.Equal(t, 0.0, overlapScore([]string{"a"}, []string{"b"}))
	assert.InDelta(t, 1.0/2.0, overlapScore([]string{"a", "b"}, []string{"a"}), 0.0001)
}
