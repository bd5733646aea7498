package search

import (
	"strings"

	"github.com/dekarrin/nlquery/internal/grammar"
)

// opKind distinguishes the two events a rule's RuleProps can contribute to a
// candidate's grammatical-property timeline: pushing a new constraint, or
// requesting an inflected form be resolved against whatever is pending.
type opKind int

const (
	opPush opKind = iota
	opConsume
)

// op is one entry in a Candidate's event timeline, in left-to-right
// derivation order. A push carries the GramProps a rule contributed; a
// consume marks a not-yet-resolved inflected Text and the index into the
// owning Candidate's Tokens where its resolved words belong (initially a
// single "" placeholder).
type op struct {
	kind  opKind
	props *grammar.GramProps
	pos   int
	text  grammar.Text
}

// combineText produces a rule's token contribution plus its slice of the
// op timeline, given the fully-resolved (and already transposition-ordered)
// candidates for its children. An insertion rule's own text is spliced in
// at InsertionIndex alongside the children's tokens; any other rule with its
// own Text replaces the children's surface entirely (it is specifying the
// canonical phrasing for its span, not just adding to it, so the children's
// own still-pending ops are dropped along with their tokens); a rule with no
// Text at all is pure structure and passes the children's tokens and ops
// through, offset by where they land in the combined token list.
//
// A gram_props push always happens before anything else this rule
// contributes, matching the order rules are entered during derivation
// regardless of where this rule's own text lands relative to its children's.
func combineText(props grammar.RuleProps, lc, rc Candidate) ([]string, []op) {
	var pushOps []op
	if props.GramProps != nil {
		pushOps = []op{{kind: opPush, props: props.GramProps}}
	}

	childTokens := append(append([]string(nil), lc.Tokens...), rc.Tokens...)
	childOps := append(append([]op(nil), lc.Ops...), offsetOps(rc.Ops, len(lc.Tokens))...)

	if props.Text.IsZero() {
		return childTokens, append(pushOps, childOps...)
	}

	ownTokens, ownOps := emitOwnText(props.Text, 0)

	if !props.IsInsertion() {
		// This rule's text is the canonical phrasing for its whole span; the
		// children's surface (and any of their still-pending ops) is
		// discarded along with it.
		return ownTokens, append(pushOps, ownOps...)
	}

	idx := 0
	if props.InsertionIndex != nil {
		idx = *props.InsertionIndex
	}
	if idx == 0 {
		tokens := append(append([]string(nil), ownTokens...), childTokens...)
		ops := append(pushOps, append(ownOps, offsetOps(childOps, len(ownTokens))...)...)
		return tokens, ops
	}
	tokens := append(append([]string(nil), childTokens...), ownTokens...)
	ops := append(pushOps, append(childOps, offsetOps(ownOps, len(childTokens))...)...)
	return tokens, ops
}

// emitOwnText walks a rule's own Text object, producing its literal surface
// words and one opConsume per inflected leaf encountered (each starting as a
// single "" placeholder token at the returned position), base being this
// Text's starting offset into the token slice it will end up in.
func emitOwnText(t grammar.Text, base int) ([]string, []op) {
	switch t.Kind {
	case grammar.TextPlain:
		return strings.Fields(t.Plain), nil
	case grammar.TextInflected:
		return []string{""}, []op{{kind: opConsume, pos: base, text: t}}
	case grammar.TextSequence:
		var tokens []string
		var ops []op
		for _, sub := range t.Sequence {
			subTokens, subOps := emitOwnText(sub, base+len(tokens))
			tokens = append(tokens, subTokens...)
			ops = append(ops, subOps...)
		}
		return tokens, ops
	default:
		return nil, nil
	}
}

// offsetOps shifts every consume op's token position by delta, leaving push
// ops (which carry no position) untouched.
func offsetOps(ops []op, delta int) []op {
	if delta == 0 || len(ops) == 0 {
		return ops
	}
	out := make([]op, len(ops))
	for i, o := range ops {
		if o.kind == opConsume {
			o.pos += delta
		}
		out[i] = o
	}
	return out
}

// resolveInflected walks stack from most-recent (the end) backwards, looking
// for the first frame with a form key present in t.Inflected. The winning
// frame is spliced out of the returned stack, unless it carries both
// person-number and grammatical-case and only the case was the one used, in
// which case only grammatical-case is cleared and the frame stays pending
// for person-number.
func resolveInflected(stack []*grammar.GramProps, t grammar.Text) ([]string, []*grammar.GramProps, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		frame := stack[i]
		for _, key := range candidateFormKeys(frame) {
			s, ok := t.Inflected[key]
			if !ok {
				continue
			}
			return strings.Fields(s), spliceFrame(stack, i, frame, key), true
		}
	}
	return nil, stack, false
}

func spliceFrame(stack []*grammar.GramProps, i int, frame *grammar.GramProps, usedKey string) []*grammar.GramProps {
	if frame.PersonNumber != "" && frame.GrammaticalCase != "" && usedKey == string(frame.GrammaticalCase) {
		remainder := *frame
		remainder.GrammaticalCase = ""
		out := append([]*grammar.GramProps(nil), stack[:i]...)
		out = append(out, &remainder)
		return append(out, stack[i+1:]...)
	}
	out := append([]*grammar.GramProps(nil), stack[:i]...)
	return append(out, stack[i+1:]...)
}

// candidateFormKeys orders the inflection-table keys to try for gp, applying
// the AcceptPastAsPresent and NoPresentPerfect fallbacks (the two knobs are
// independent of each other) before falling through to gp's own
// person-number/grammatical-case entries.
func candidateFormKeys(gp *grammar.GramProps) []string {
	if gp == nil {
		return nil
	}

	var keys []string
	if gp.VerbForm == grammar.PastPerfect && gp.NoPresentPerfect {
		keys = append(keys, string(grammar.Past))
	}
	if gp.VerbForm != "" {
		keys = append(keys, string(gp.VerbForm))
	}
	if gp.VerbForm == grammar.Past && gp.AcceptPastAsPresent {
		keys = append(keys, string(grammar.Present))
	}
	if gp.PersonNumber != "" {
		keys = append(keys, string(gp.PersonNumber))
	}
	if gp.GrammaticalCase != "" {
		keys = append(keys, string(gp.GrammaticalCase))
	}
	return keys
}
