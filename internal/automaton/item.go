package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/nlquery/internal/grammar"
)

// item is an LR(0) item local to the state-table builder: a triple (LHS,
// RHS, dot position). Canonical comparison is LHS index, then dot position,
// then RHS index sequence, used to deduplicate kernel sets.
type item struct {
	lhs  *grammar.Symbol
	rhs  []*grammar.Symbol
	dot  int
	rule *grammar.Rule
}

func (it item) atEnd() bool {
	return it.dot >= len(it.rhs)
}

// nextSymbol returns the symbol immediately right of the dot, or nil if the
// dot is at the end.
func (it item) nextSymbol() *grammar.Symbol {
	if it.atEnd() {
		return nil
	}
	return it.rhs[it.dot]
}

func (it item) advanced() item {
	return item{lhs: it.lhs, rhs: it.rhs, dot: it.dot + 1, rule: it.rule}
}

// String renders an item as "LHS -> a b . c d", used only for canonical key
// construction and debugging.
func (it item) String() string {
	var left, right []string
	for i, s := range it.rhs {
		if i < it.dot {
			left = append(left, s.Name)
		} else {
			right = append(right, s.Name)
		}
	}
	return fmt.Sprintf("%s -> %s . %s", it.lhs.Name, strings.Join(left, " "), strings.Join(right, " "))
}

// compareKey builds the canonical comparison key: LHS index, dot position,
// then the RHS index sequence.
func (it item) compareKey() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%05d|%03d|", it.lhs.Index, it.dot)
	for _, s := range it.rhs {
		fmt.Fprintf(&sb, "%05d,", s.Index)
	}
	return sb.String()
}

// itemSet is a canonically-ordered, deduplicated collection of items used as
// a kernel or a closure result.
type itemSet struct {
	items []item
	seen  map[string]bool
}

func newItemSet() *itemSet {
	return &itemSet{seen: make(map[string]bool)}
}

func (s *itemSet) add(it item) bool {
	key := it.compareKey()
	if s.seen[key] {
		return false
	}
	s.seen[key] = true
	s.items = append(s.items, it)
	return true
}

// canonicalKey sorts the set's items by compareKey and joins them, giving a
// structural-equality fingerprint independent of insertion order.
func (s *itemSet) canonicalKey() string {
	keys := make([]string, len(s.items))
	for i, it := range s.items {
		keys[i] = it.compareKey()
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}
