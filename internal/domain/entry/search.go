package entry

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// minFuzzyLen is the shortest query word that tolerates a typo.
const minFuzzyLen = 4

// Matches reports whether e matches a dashboard search query. Name and
// description match on a case-insensitive substring; single-word queries
// also match a name word one edit away.
func Matches(e Entry, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	name := strings.ToLower(e.Name)
	if strings.Contains(name, q) || strings.Contains(strings.ToLower(e.Description), q) {
		return true
	}
	if len(q) < minFuzzyLen || strings.ContainsAny(q, " \t") {
		return false
	}
	for _, word := range strings.Fields(name) {
		if len(word) < minFuzzyLen {
			continue
		}
		if levenshtein.ComputeDistance(word, q) <= 1 {
			return true
		}
	}
	return false
}

// Filter returns the entries matching query, preserving order.
func Filter(entries []Entry, query string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, query) {
			out = append(out, e)
		}
	}
	return out
}
