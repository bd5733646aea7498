package semantic

import (
	"testing"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToString_leaf(t *testing.T) {
	assert.Equal(t, "me", ToString(Leaf("me")))
}

func Test_ToString_application(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "repositories-liked", MinParams: 1, MaxParams: 1}
	app := &Semantic{Def: fn, Children: []*Semantic{Leaf("me")}}
	assert.Equal(t, "repositories-liked(me)", ToString(app))
}

func Test_ToString_commutativeSortsChildren(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "and", Commutative: true, MinParams: 2, MaxParams: 8}
	a := &Semantic{Def: fn, Children: []*Semantic{Leaf("z"), Leaf("a")}}
	b := &Semantic{Def: fn, Children: []*Semantic{Leaf("a"), Leaf("z")}}
	assert.Equal(t, ToString(a), ToString(b))
}

func Test_Flatten_mergesNestedCommutative(t *testing.T) {
	and := &grammar.SemanticDef{Name: "and", Commutative: true, MinParams: 2, MaxParams: 8}
	nested := &Semantic{Def: and, Children: []*Semantic{
 Leaf("a"),
 {Def: and, Children: []*Semantic{Leaf("b"), Leaf("c")}},
	}}
	flat := Flatten(nested)
	assert.Len(t, flat.Children, 3)
}

func Test_Reduce_withinBounds(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "repositories-liked", MinParams: 1, MaxParams: 1}
	out, err := Reduce(fn, []*Semantic{Leaf("me")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "repositories-liked(me)", ToString(out[0]))
}

func Test_Reduce_tooFewArgs(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "followed-by", MinParams: 2, MaxParams: 2}
	_, err := Reduce(fn, []*Semantic{Leaf("me")})
	require.Error(t, err)
}

func Test_Reduce_distributesWhenMaxIsOne(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "repositories-liked", MinParams: 1, MaxParams: 1}
	out, err := Reduce(fn, []*Semantic{Leaf("me"), Leaf("Danny")})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "repositories-liked(me)", ToString(out[0]))
	assert.Equal(t, "repositories-liked(Danny)", ToString(out[1]))
}

func Test_IsForbiddenMultiple(t *testing.T) {
	fn := &grammar.SemanticDef{Name: "not", ForbidsMultiple: true, MinParams: 1, MaxParams: 1}
	existing := []*Semantic{{Def: fn, Children: []*Semantic{Leaf("x")}}}
	assert.True(t, IsForbiddenMultiple(existing, fn))

	other := &grammar.SemanticDef{Name: "maybe"}
	assert.False(t, IsForbiddenMultiple(existing, other))
}

func Test_MergeRHS_rejectsDuplicates(t *testing.T) {
	a := []*Semantic{Leaf("me")}
	b := []*Semantic{Leaf("me")}
	_, err := MergeRHS(a, b)
	require.Error(t, err)
}

func Test_MergeRHS_acceptsDistinct(t *testing.T) {
	a := []*Semantic{Leaf("me")}
	b := []*Semantic{Leaf("Danny")}
	merged, err := MergeRHS(a, b)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func Test_ResolveAnaphora_bindsToPrecedingArgument(t *testing.T) {
	people := &grammar.SemanticDef{Name: "people", IsArg: true}
	myself := &grammar.SemanticDef{Name: "myself", IsArg: true, Anaphoric: true, Cost: 0.3}

	items := []*Semantic{ArgFromDef(people), ArgFromDef(myself)}
	resolved := ResolveAnaphora(items)

	require.Len(t, resolved, 2)
	assert.Same(t, resolved[0], resolved[1], "the anaphor should be resolved to its preceding antecedent")
	assert.Equal(t, "people", ToString(resolved[1]))
}

func Test_ResolveAnaphora_noAntecedentLeavesAnaphorUnchanged(t *testing.T) {
	myself := &grammar.SemanticDef{Name: "myself", IsArg: true, Anaphoric: true}
	items := []*Semantic{ArgFromDef(myself)}
	resolved := ResolveAnaphora(items)
	require.Len(t, resolved, 1)
	assert.Equal(t, "myself", ToString(resolved[0]))
}

func Test_ResolveAnaphora_nonAnaphoricItemsUnchanged(t *testing.T) {
	items := []*Semantic{Leaf("me"), Leaf("Danny")}
	resolved := ResolveAnaphora(items)
	assert.Equal(t, items, resolved)
}
