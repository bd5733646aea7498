// Package util holds small generic containers and string helpers. Within
// this module only the forest package imports it (VSet and Fingerprint for
// its arena and GSS indexes).
package util

import (
	"fmt"
	"sort"
	"strings"
)

// Set is a generic unordered collection of comparable elements.
type Set[E comparable] map[E]struct{}

// NewSet returns a new Set containing the given elements.
func NewSet[E comparable](of ...E) Set[E] {
	s := make(Set[E], len(of))
	for _, e := range of {
		s.Add(e)
	}
	return s
}

// Add adds element to the set. Has no effect if it is already present.
func (s Set[E]) Add(element E) {
	s[element] = struct{}{}
}

// AddAll adds every element of s2 to s.
func (s Set[E]) AddAll(s2 Set[E]) {
	for e := range s2 {
		s.Add(e)
	}
}

// Remove removes element from the set. Has no effect if it is not present.
func (s Set[E]) Remove(element E) {
	delete(s, element)
}

// Has returns whether element is in the set.
func (s Set[E]) Has(element E) bool {
	_, ok := s[element]
	return ok
}

// Len returns the number of elements in the set.
func (s Set[E]) Len() int {
	return len(s)
}

// Empty returns whether the set has no elements.
func (s Set[E]) Empty() bool {
	return len(s) == 0
}

// Copy returns a shallow copy of s.
func (s Set[E]) Copy() Set[E] {
	s2 := make(Set[E], len(s))
	s2.AddAll(s)
	return s2
}

// Elements returns the elements of the set in unspecified order.
func (s Set[E]) Elements() []E {
	elems := make([]E, 0, len(s))
	for e := range s {
		elems = append(elems, e)
	}
	return elems
}

// Union returns a new set containing every element of s and s2.
func (s Set[E]) Union(s2 Set[E]) Set[E] {
	u := s.Copy()
	u.AddAll(s2)
	return u
}

// Intersection returns a new set containing only elements in both s and s2.
func (s Set[E]) Intersection(s2 Set[E]) Set[E] {
	i := make(Set[E])
	for e := range s {
		if s2.Has(e) {
			i.Add(e)
		}
	}
	return i
}

// Any returns whether any element of s satisfies predicate.
func (s Set[E]) Any(predicate func(E) bool) bool {
	for e := range s {
		if predicate(e) {
			return true
		}
	}
	return false
}

// VSet is a Set whose elements are string keys mapped to an arbitrary value,
// used when the canonical key of an item (an SPPF (symbol, start, size)
// triple, a GSS (state, position) pair, a z-node's label node) is cheaper to
// compute as a string than to compare structurally on every lookup.
type VSet[V any] map[string]V

// NewVSet returns an empty VSet.
func NewVSet[V any]() VSet[V] {
	return make(VSet[V])
}

// Set assigns the value for key, adding it if not already present.
func (s VSet[V]) Set(key string, val V) {
	s[key] = val
}

// Get retrieves the value for key, or the zero value if absent.
func (s VSet[V]) Get(key string) V {
	return s[key]
}

// Has returns whether key is present.
func (s VSet[V]) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys present.
func (s VSet[V]) Len() int {
	return len(s)
}

// Keys returns the keys of s in unspecified order.
func (s VSet[V]) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// KeysOrdered returns the keys of s sorted lexically, for callers that need
// a deterministic order.
func (s VSet[V]) KeysOrdered() []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}

// MakeTextList joins items into a natural-language list ("a", "a and b", or
// "a, b, and c").
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}
	if len(items) == 1 {
		return items[0]
	}
	if len(items) == 2 {
		return items[0] + " and " + items[1]
	}
	cp := make([]string, len(items))
	copy(cp, items)
	cp[len(cp)-1] = "and " + cp[len(cp)-1]
	return strings.Join(cp, ", ")
}

// Fingerprint builds a stable, delimiter-safe string key from arbitrary
// parts, used wherever a composite identity (symbol+start+size,
// state+position, a z-node's label node) needs to become a map key.
func Fingerprint(parts ...any) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprintf("%v", p)
	}
	return strings.Join(strs, "\x1f")
}
