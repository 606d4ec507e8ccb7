package usecases

import (
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// substringBonus is added when an example's whole input appears in the query.
const substringBonus = 2

// Tokenize splits s on whitespace, lower-cases the pieces and keeps the
// distinct ones longer than one character.
func Tokenize(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			set[f] = struct{}{}
		}
	}
	return set
}

// Score rates how well input matches query: one point per shared token,
// plus a bonus when input occurs verbatim (case-insensitive) in query.
func Score(query, input string) int {
	q := strings.ToLower(query)
	return score(Tokenize(q), q, input)
}

func score(queryTokens map[string]struct{}, lowerQuery, input string) int {
	lowerInput := strings.ToLower(input)

	n := 0
	for tok := range Tokenize(lowerInput) {
		if _, ok := queryTokens[tok]; ok {
			n++
		}
	}

	// An empty input is a substring of everything.
	if lowerInput != "" && strings.Contains(lowerQuery, lowerInput) {
		n += substringBonus
	}
	return n
}

// BestMatch scores every example against query and returns the highest.
// Ties keep the earliest example. A best score of zero is no match.
func BestMatch(query string, dataset entities.Dataset) (entities.Match, bool) {
	lowerQuery := strings.ToLower(query)
	queryTokens := Tokenize(lowerQuery)

	best := entities.Match{Index: -1}
	for i, ex := range dataset.Examples {
		s := score(queryTokens, lowerQuery, ex.Input)
		if s > best.Score {
			best = entities.Match{Example: ex, Score: s, Index: i}
		}
	}

	if best.Score <= 0 {
		return entities.Match{}, false
	}
	return best, true
}

// FindBest returns the example most similar to query, if any scores above zero.
func FindBest(query string, dataset entities.Dataset) (entities.Example, bool) {
	m, ok := BestMatch(query, dataset)
	if !ok {
		return entities.Example{}, false
	}
	return m.Example, true
}
