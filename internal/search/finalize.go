package search

import "github.com/dekarrin/nlquery/internal/grammar"

// FinalizeCandidates resolves every deferred inflected-text placeholder in
// cands against that specific candidate's own fully-merged op timeline.
// Candidate.Ops accumulates bottom-up as combine() walks up the forest, so
// by the time a candidate reaches the root its timeline already holds every
// gram_props push and every inflected-text request in true left-to-right
// derivation order — including pushes made by a sibling subtree far from
// the rule that ends up consuming them. Resolving it once here, rather than
// at each combine() step, is what lets one rule's pushed constraint be
// consumed by an unrelated rule discovered later in the same derivation
// without re-resolving a memoized child candidate per distinct parent
// context.
//
// A candidate whose inflected text matches no pending frame failed to
// conjugate along that specific path (a grammar/data bug, per spec) and is
// dropped rather than propagated as a hard error, the same way combine()
// already drops a branch on an illegal semantic merge.
func FinalizeCandidates(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if resolved, ok := resolveOps(c); ok {
			out = append(out, resolved)
		}
	}
	return out
}

func resolveOps(c Candidate) (Candidate, bool) {
	if len(c.Ops) == 0 {
		return c, true
	}

	tokens := append([]string(nil), c.Tokens...)
	var stack []*grammar.GramProps
	shift := 0

	for _, o := range c.Ops {
		switch o.kind {
		case opPush:
			stack = append(stack, o.props)
		case opConsume:
			words, newStack, ok := resolveInflected(stack, o.text)
			if !ok {
				return Candidate{}, false
			}
			stack = newStack
			pos := o.pos + shift
			rest := append([]string(nil), tokens[pos+1:]...)
			tokens = append(append(tokens[:pos:pos], words...), rest...)
			shift += len(words) - 1
		}
	}

	c.Tokens = tokens
	c.Ops = nil
	return c, true
}
