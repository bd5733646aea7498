package nlquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/nlquery/internal/qerrors"
)

const sampleArtifact = `
start_symbol = "S"

[semantics.me]
cost = 0
min_params = 0
max_params = 0
is_arg = true

[semantics.repos-liked]
cost = 0
min_params = 1
max_params = 1

[[grammar.S]]
rhs = ["RI", "liked"]
cost = 0
semantic = { func = "repos-liked" }

[[grammar.RI]]
rhs = ["repos", "I"]
cost = 0
semantic = { name = "me" }
`

func Test_LoadBytes_andParse_acceptedQuery(t *testing.T) {
	eng, err := LoadBytes([]byte(sampleArtifact))
	require.NoError(t, err)

	pr := eng.Parse("repos I liked", 3)
	require.Empty(t, pr.Message)
	require.Len(t, pr.Trees, 1)
	assert.Equal(t, "repos I liked", pr.Trees[0].Text)
	assert.Equal(t, "repos-liked(me)", pr.Trees[0].Semantic)
	assert.NotEqual(t, pr.QueryID.String(), "")
}

func Test_Parse_unparseableQuery_reportsFailureMessage(t *testing.T) {
	eng, err := LoadBytes([]byte(sampleArtifact))
	require.NoError(t, err)

	pr := eng.Parse("completely unrelated words here", 3)
	assert.Empty(t, pr.Trees)
	assert.Equal(t, qerrors.MsgFailedToReachStart, pr.Message)
}

func Test_LoadBytes_withCacheDir_reusesCompiledAutomaton(t *testing.T) {
	dir := t.TempDir()

	eng1, err := LoadBytes([]byte(sampleArtifact), WithCacheDir(dir))
	require.NoError(t, err)
	pr1 := eng1.Parse("repos I liked", 1)
	require.Empty(t, pr1.Message)

	eng2, err := LoadBytes([]byte(sampleArtifact), WithCacheDir(dir))
	require.NoError(t, err)
	pr2 := eng2.Parse("repos I liked", 1)
	require.Empty(t, pr2.Message)

	require.Len(t, pr2.Trees, 1)
	assert.Equal(t, pr1.Trees[0].Text, pr2.Trees[0].Text)
	assert.Equal(t, pr1.Trees[0].Semantic, pr2.Trees[0].Semantic)
}

func Test_LoadBytes_defaultKAppliedWhenNonPositive(t *testing.T) {
	eng, err := LoadBytes([]byte(sampleArtifact), WithDefaultK(2))
	require.NoError(t, err)

	pr := eng.Parse("repos I liked", 0)
	require.Empty(t, pr.Message)
	assert.LessOrEqual(t, len(pr.Trees), 2)
}

func Test_WithSearchTimeout_stillReturnsBestTreesFound(t *testing.T) {
	eng, err := LoadBytes([]byte(sampleArtifact), WithSearchTimeout(time.Hour))
	require.NoError(t, err)

	pr := eng.Parse("repos I liked", 3)
	require.Empty(t, pr.Message)
	require.Len(t, pr.Trees, 1)
	assert.Equal(t, "repos-liked(me)", pr.Trees[0].Semantic)
}

// Test_Parse_crossSubtreeGrammaticalAgreement exercises a subject's
// gram_props constraint being consumed by a verb phrase discovered in a
// sibling subtree, not by the subject's own rule.
const crossAgreementArtifact = `
start_symbol = "S"

[semantics.me]
cost = 0
min_params = 0
max_params = 0
is_arg = true

[semantics.contributed]
cost = 0
min_params = 1
max_params = 1

[[grammar.S]]
rhs = ["Subj", "VP"]
cost = 0
semantic = { func = "contributed" }

[[grammar.Subj]]
rhs = ["I"]
cost = 0
semantic = { name = "me" }
gram_props = { person_number = "one-sg" }

[[grammar.VP]]
rhs = ["contributed"]
cost = 0
text = { one-sg = "have contributed", three-sg = "has contributed" }
`

func Test_Parse_crossSubtreeGrammaticalAgreement(t *testing.T) {
	eng, err := LoadBytes([]byte(crossAgreementArtifact))
	require.NoError(t, err)

	pr := eng.Parse("I contributed", 3)
	require.Empty(t, pr.Message)
	require.NotEmpty(t, pr.Trees)
	assert.Equal(t, "I have contributed", pr.Trees[0].Text)
	assert.Equal(t, "contributed(me)", pr.Trees[0].Semantic)
}

// Test_Parse_anaphoricSubstituteAppliesCostPenalty reproduces "people
// followed by myself" -> "people followed by me", where "myself" is an
// anaphoric leaf whose own rule supplies the canonical surface text and
// whose semantic identity resolves to the preceding antecedent.
const anaphoraArtifact = `
start_symbol = "S"

[semantics.people]
cost = 0
min_params = 0
max_params = 0
is_arg = true

[semantics.myself]
cost = 0.3
min_params = 0
max_params = 0
is_arg = true
anaphoric = true

[semantics.followed-by]
cost = 0
min_params = 2
max_params = 2

[[grammar.S]]
rhs = ["Subj", "Obj"]
cost = 0
semantic = { func = "followed-by" }

[[grammar.Subj]]
rhs = ["people followed by"]
is_terminal = true
token_width = 3
cost = 0
semantic = { name = "people" }

[[grammar.Obj]]
rhs = ["myself"]
cost = 0.3
semantic = { name = "myself" }
text = "me"
`

func Test_Parse_anaphoricSubstituteAppliesCostPenalty(t *testing.T) {
	eng, err := LoadBytes([]byte(anaphoraArtifact))
	require.NoError(t, err)

	pr := eng.Parse("people followed by myself", 3)
	require.Empty(t, pr.Message)
	require.NotEmpty(t, pr.Trees)
	assert.Equal(t, "people followed by me", pr.Trees[0].Text)
	assert.Greater(t, pr.Trees[0].Cost, 0.0, "the anaphoric substitute should carry its rule's cost penalty")
}
