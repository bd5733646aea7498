package forest

import (
	"sort"
	"strings"

	"github.com/dekarrin/nlquery/internal/grammar"
)

// EntityMatch is one fuzzy match of a token window against an entity
// category (entity placeholders).
type EntityMatch struct {
	Canonical string
	Width     int     // tokens consumed
	Cost      float64 // penalty derived from match score
}

// EntityIndex is an inverted index over entity names within one category,
// word -> candidate entity records, used for fuzzy multi-token lookup.
// Grounded on the spec's description of an "inverted-index lookup over
// entity names (fuzzy multi-token with scoring)"; the entity tokenization
// heuristics themselves are an out-of-scope collaborator, so this
// index only does containment/overlap scoring over whatever names the
// grammar artifact supplies.
type EntityIndex struct {
	maxWidth int
	byWord   map[string][]entityEntry
}

type entityEntry struct {
	canonical string
	words     []string
}

// BuildEntityIndex builds one EntityIndex per entity category declared in
// the grammar.
func BuildEntityIndex(g *grammar.Grammar) map[string]*EntityIndex {
	out := make(map[string]*EntityIndex, len(g.EntityCategories))
	for cat, records := range g.EntityCategories {
		idx := &EntityIndex{byWord: make(map[string][]entityEntry)}
		for _, rec := range records {
			names := rec.Names
			if len(names) == 0 {
				names = []string{rec.Canonical}
			}
			for _, name := range names {
				words := strings.Fields(strings.ToLower(name))
				if len(words) == 0 {
					continue
				}
				if len(words) > idx.maxWidth {
					idx.maxWidth = len(words)
				}
				entry := entityEntry{canonical: rec.Canonical, words: words}
				for _, w := range words {
					idx.byWord[w] = append(idx.byWord[w], entry)
				}
			}
		}
		out[cat] = idx
	}
	return out
}

// Lookup scores every candidate entry that shares at least one word with the
// token window starting at tokens[pos], for widths from 1 up to the
// index's longest known entity name (bounded by maxWindow), and returns
// matches scoring at or above threshold, at most one per entity and width,
// ordered by increasing cost (ties keep the narrower width first), each
// carrying a cost penalty of (1 - score) * costScale.
func (idx *EntityIndex) Lookup(tokens []Token, pos int, maxWindow int, threshold, costScale float64) []EntityMatch {
	if idx == nil {
		return nil
	}
	limit := idx.maxWidth
	if maxWindow > 0 && maxWindow < limit {
		limit = maxWindow
	}

	var matches []EntityMatch
	for width := 1; width <= limit && pos+width <= len(tokens); width++ {
		seen := make(map[string]bool)
		window := make([]string, width)
		for i := 0; i < width; i++ {
			window[i] = tokens[pos+i].Normalized
		}
		candidates := idx.candidatesFor(window)
		for _, c := range candidates {
			score := overlapScore(window, c.words)
			if score < threshold {
				continue
			}
			key := c.canonical
			if seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, EntityMatch{
				Canonical: c.canonical,
				Width:     width,
				Cost:      (1 - score) * costScale,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Cost < matches[j].Cost })
	return matches
}

func (idx *EntityIndex) candidatesFor(window []string) []entityEntry {
	var out []entityEntry
	added := make(map[string]bool)
	for _, w := range window {
		for _, c := range idx.byWord[w] {
			key := c.canonical + "\x1f" + strings.Join(c.words, " ")
			if added[key] {
				continue
			}
			added[key] = true
			out = append(out, c)
		}
	}
	return out
}

// overlapScore is the fraction of words shared between window and candidate
// words, symmetric (Jaccard-like) so neither a short window against a long
// name nor the reverse scores artificially high.
func overlapScore(window, candidate []string) float64 {
	wset := make(map[string]bool, len(window))
	for _, w := range window {
		wset[w] = true
	}
	shared := 0
	cset := make(map[string]bool, len(candidate))
	for _, c := range candidate {
		cset[c] = true
		if wset[c] {
			shared++
		}
	}
	union := len(wset)
	for c := range cset {
		if !wset[c] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
