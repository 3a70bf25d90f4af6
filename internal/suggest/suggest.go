// Package suggest synthesizes autocomplete suggestions for a keyword prefix.
// Pure permutation, no upstream calls.
package suggest

import "unicode/utf8"

var suffixes = []string{"tools", "tutorial", "tips", "methods", "platform", "software", "free", "online"}

var prefixes = []string{"how to", "what is", "why", "best", "free"}

const maxSuggestionLen = 30

// ForQuery returns up to 8 suggestions: the query itself, then suffix and
// prefix permutations. Queries shorter than 2 runes get none; anything over
// 30 runes is filtered out.
func ForQuery(query string) []string {
	if utf8.RuneCountInString(query) < 2 {
		return []string{}
	}

	candidates := make([]string, 0, 6)
	candidates = append(candidates, query)
	for _, s := range suffixes[:3] {
		candidates = append(candidates, query+" "+s)
	}
	for _, p := range prefixes[:2] {
		candidates = append(candidates, p+" "+query)
	}

	out := make([]string, 0, 8)
	for _, c := range candidates {
		if utf8.RuneCountInString(c) > maxSuggestionLen {
			continue
		}
		out = append(out, c)
		if len(out) == 8 {
			break
		}
	}
	return out
}
