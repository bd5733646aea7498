// Package semantic implements the reduce/merge/legality algebra over
// semantic trees: flattening of commutative operators, duplicate detection,
// forbidden-multiple detection, and the toString canonicalization used both
// as display semantic and as the dedup key for accepted trees.
//
// Grounded on internal/tunascript/ast.go's astNode/fnNode tree shape and
// eval.go's evalExpr, generalized from tunascript's fixed operator set to an
// open function table driven by the grammar artifact's `semantics` map.
package semantic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/nlquery/internal/grammar"
	"github.com/dekarrin/nlquery/internal/qerrors"
)

// Semantic is a node in a semantic tree: either an argument leaf (Def nil or
// Def.IsArg, no children) or an application of a semantic function to an
// ordered list of child semantics.
type Semantic struct {
	Def      *grammar.SemanticDef // nil for a bare named leaf (e.g. a literal integer)
	Name     string               // leaf display name; meaningful when Def == nil or Def.IsArg
	Children []*Semantic
}

// Leaf returns a bare argument leaf with no backing function definition
// (used for <int> placeholders, whose argument is named by the literal
// digits).
func Leaf(name string) *Semantic {
	return &Semantic{Name: name}
}

// ArgFromDef returns a leaf backed by an is_arg semantic function (e.g.
// "me"), so its cost and anaphoric flag are available to the search.
func ArgFromDef(def *grammar.SemanticDef) *Semantic {
	return &Semantic{Def: def, Name: def.Name}
}

// IsLeaf reports whether s has no children.
func (s *Semantic) IsLeaf() bool {
	return s != nil && len(s.Children) == 0
}

// displayName is the canonical name used in toString and by duplicate
// detection: the function name if this is an application, else Name.
func (s *Semantic) displayName() string {
	if s.Def != nil {
		return s.Def.Name
	}
	return s.Name
}

// ToString produces the canonical, deterministic string form of s used both
// for display and as the dedup fingerprint of a tree. Commutative
// aggregator children (functions whose Commutative flag is set) are sorted
// lexically by their own ToString before joining, so semantically-identical
// but differently-ordered trees fingerprint identically.
func ToString(s *Semantic) string {
	if s == nil {
		return ""
	}
	if s.IsLeaf() {
		return s.displayName()
	}

	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = ToString(c)
	}
	if s.Def != nil && s.Def.Commutative {
		sort.Strings(parts)
	}
	return fmt.Sprintf("%s(%s)", s.displayName(), strings.Join(parts, ","))
}

// Flatten merges nested applications of the same commutative function into
// one level, e.g. and(a, and(b, c)) becomes and(a, b, c). Non-commutative
// nodes, and leaves, are returned unchanged (but their children are still
// flattened recursively).
func Flatten(s *Semantic) *Semantic {
	if s == nil || s.IsLeaf() {
		return s
	}

	flatChildren := make([]*Semantic, 0, len(s.Children))
	for _, c := range s.Children {
		fc := Flatten(c)
		if s.Def != nil && s.Def.Commutative && fc.Def == s.Def {
			flatChildren = append(flatChildren, fc.Children...)
		} else {
			flatChildren = append(flatChildren, fc)
		}
	}
	return &Semantic{Def: s.Def, Name: s.Name, Children: flatChildren}
}

// IsForbiddenMultiple reports whether newLHS is a forbids-multiple function
// that already has an application present among existingRHS, which makes
// pushing a second occurrence of it guaranteed illegal and lets the search
// prune the branch before actually attempting the reduction.
func IsForbiddenMultiple(existingRHS []*Semantic, newLHS *grammar.SemanticDef) bool {
	if newLHS == nil || !newLHS.ForbidsMultiple {
		return false
	}
	for _, s := range existingRHS {
		if s.Def == newLHS {
			return true
		}
	}
	return false
}

// IsIllegalRHS reports whether merging newItem into an aggregator's existing
// children would duplicate an entry (by ToString identity) or violate a
// forbidden-multiple constraint.
func IsIllegalRHS(childrenOfAggregator []*Semantic, newItem *Semantic) bool {
	newStr := ToString(newItem)
	for _, c := range childrenOfAggregator {
		if ToString(c) == newStr {
			return true
		}
	}
	return IsForbiddenMultiple(childrenOfAggregator, newItem.Def)
}

// ResolveAnaphora replaces each anaphoric argument in items with the
// nearest preceding non-anaphoric argument, so its display and dedup
// identity becomes that "previously mentioned entity" instead of its own
// placeholder name. An anaphor with nothing eligible before it in items is
// left as itself. Neither case adds the anaphor's def Cost to any path
// cost; only the rule costs summed by the search do that.
func ResolveAnaphora(items []*Semantic) []*Semantic {
	hasAnaphor := false
	for _, it := range items {
		if it.Def != nil && it.Def.Anaphoric {
			hasAnaphor = true
			break
		}
	}
	if !hasAnaphor {
		return items
	}

	out := make([]*Semantic, len(items))
	var antecedent *Semantic
	for i, it := range items {
		if it.Def != nil && it.Def.Anaphoric && antecedent != nil {
			out[i] = antecedent
			continue
		}
		out[i] = it
		if it.Def != nil && it.Def.IsArg && !it.Def.Anaphoric {
			antecedent = it
		}
	}
	return out
}

// MergeRHS concatenates two reduced semantic arrays, checking for duplicates
// (by ToString identity) and function-level forbidden-multiple conflicts. It
// fails (returns a soft error) if any element of b conflicts with a or with
// an earlier element of b.
func MergeRHS(a, b []*Semantic) ([]*Semantic, error) {
	merged := make([]*Semantic, 0, len(a)+len(b))
	merged = append(merged, a...)
	for _, item := range b {
		if IsIllegalRHS(merged, item) {
			return nil, qerrors.Softf("illegal RHS merge: %s conflicts with existing children", ToString(item))
		}
		merged = append(merged, item)
	}
	return merged, nil
}

// Reduce applies a pending LHS function to a materialized RHS array: it
// validates min_params <= len(rhs) <= max_params. If max_params == 1 and
// len(rhs) > 1, the function is distributed: one application per rhs element
// is produced, to be merged by the caller (typically into an aggregator one
// level up).
func Reduce(lhs *grammar.SemanticDef, rhs []*Semantic) ([]*Semantic, error) {
	if lhs == nil {
		return nil, qerrors.Softf("cannot reduce against a nil semantic function")
	}
	n := len(rhs)
	if n < lhs.MinParams {
		return nil, qerrors.Softf("too few arguments for %s: got %d, need at least %d", lhs.Name, n, lhs.MinParams)
	}
	if lhs.MaxParams >= 0 && n > lhs.MaxParams {
		if lhs.MaxParams == 1 {
			apps := make([]*Semantic, n)
			for i, r := range rhs {
				apps[i] = &Semantic{Def: lhs, Children: []*Semantic{r}}
			}
			return apps, nil
		}
		return nil, qerrors.Softf("too many arguments for %s: got %d, max %d", lhs.Name, n, lhs.MaxParams)
	}

	app := &Semantic{Def: lhs, Children: append([]*Semantic(nil), rhs...)}
	return []*Semantic{app}, nil
}
