package forest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caseFold is the Unicode-aware lowercaser used to normalize query tokens
// before terminal/entity matching, so "REPOS i LiKe" and "repos I like"
// match the same literals.
var caseFold = cases.Lower(language.Und)

// Token is one whitespace-delimited word of the query, with its original
// surface form preserved for display text and a normalized form used for
// matching.
type Token struct {
	Surface    string
	Normalized string
}

// Tokenize splits a query on whitespace and case-folds each token for
// matching purposes.
func Tokenize(query string) []Token {
	fields := strings.Fields(query)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Surface: f, Normalized: caseFold.String(f)}
	}
	return tokens
}
