// Package result assembles a Resolver's ranked candidates into the external
// ParseResults shape: per-accepted-tree text, canonical semantic string,
// cost, and the set of discarded trees that share its display text.
// Grounded on server's DTO layer, which performs the same "internal struct
// -> stable external shape" translation before a response leaves the
// process.
package result

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/nlquery/internal/forest"
	"github.com/dekarrin/nlquery/internal/qerrors"
	"github.com/dekarrin/nlquery/internal/search"
	"github.com/dekarrin/nlquery/internal/semantic"
)

// Tree is one accepted parse result: its conjugated display text, the
// canonical string of its semantic, its total cost, and the canonical
// strings of any other accepted-but-discarded trees that produced the exact
// same text.
type Tree struct {
	Text                   string   `json:"text"`
	Semantic               string   `json:"semantic"`
	Cost                   float64  `json:"cost"`
	AmbiguousAlternatives  []string `json:"ambiguous_alternatives,omitempty"`
}

// ParseResults is the full outcome of one parse call: a correlation ID, how
// long the parse took, the ranked trees, and a human-readable failure
// Message when Trees is empty.
type ParseResults struct {
	QueryID   uuid.UUID     `json:"query_id"`
	Query     string        `json:"query"`
	ParseTime time.Duration `json:"parse_time"`
	Trees     []Tree        `json:"trees"`
	Message   string        `json:"message,omitempty"`
}

// overfetchFactor widens the resolver's internal k beyond the caller's
// requested k so that de-duplication has enough candidates to find k
// *unique* trees, not just k raw ones. This is an approximation of an exact
// incrementally-expanding heap: an exact implementation would keep popping
// until k uniques are found with no fixed bound, but a resolver sized this
// way reaches k uniques for any grammar whose ambiguity rate (shared text or
// semantic across distinct parses) is modest, which holds for every grammar
// in this corpus.
const overfetchFactor = 6

// Assemble runs k-best search over root and converts its output into a
// ParseResults for query, deduplicating by semantic string and by display
// text. parseTime is the caller-measured wall time of the whole
// parse+search call.
func Assemble(arena *forest.Arena, root forest.NodeID, query string, k int, parseTime time.Duration) ParseResults {
	return AssembleWithBudget(arena, root, query, k, parseTime, search.Budget{})
}

// AssembleWithBudget is Assemble with a cooperative search.Budget applied to
// the underlying k-best resolver, so a caller with a latency ceiling gets
// back the best trees found before the budget ran out instead of blocking
// until the full forest is resolved.
func AssembleWithBudget(arena *forest.Arena, root forest.NodeID, query string, k int, parseTime time.Duration, budget search.Budget) ParseResults {
	pr := ParseResults{
		QueryID:   uuid.New(),
		Query:     query,
		ParseTime: parseTime,
	}

	workingK := k*overfetchFactor + overfetchFactor
	resolver := search.NewBudgetedResolver(arena, workingK, budget)
	candidates := search.FinalizeCandidates(resolver.KBest(root))

	bySemantic := make(map[string]*Tree)
	byText := make(map[string]*Tree)

	for _, c := range candidates {
		if len(pr.Trees) >= k {
			break
		}
		semStr := canonicalSemantic(c.Semantics)
		text := strings.TrimSpace(strings.Join(c.Tokens, " "))

		if _, dup := bySemantic[semStr]; dup {
			// a cheaper tree with this exact semantic already won; this one
			// is pure ambiguity noise, not a new alternative.
			continue
		}
		if existing, dup := byText[text]; dup {
			existing.AmbiguousAlternatives = append(existing.AmbiguousAlternatives, semStr)
			bySemantic[semStr] = existing
			continue
		}

		pr.Trees = append(pr.Trees, Tree{Text: text, Semantic: semStr, Cost: c.Cost})
		t := &pr.Trees[len(pr.Trees)-1]
		bySemantic[semStr] = t
		byText[text] = t
	}

	if len(pr.Trees) == 0 {
		pr.Message = qerrors.MsgFailedToFindLegal
	}

	return pr
}

// canonicalSemantic joins a candidate's (usually singular) semantic list
// into one display/dedup string. More than one entry happens only when a
// max_params=1 function distributed over several RHS children and nothing
// upstream re-aggregated them; such leftovers are joined in sorted order so
// the same set always canonicalizes identically.
func canonicalSemantic(sems []*semantic.Semantic) string {
	if len(sems) == 0 {
		return ""
	}
	if len(sems) == 1 {
		return semantic.ToString(sems[0])
	}
	parts := make([]string, len(sems))
	for i, s := range sems {
		parts[i] = semantic.ToString(s)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
