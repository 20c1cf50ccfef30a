// Package editdist gates phonetic hits by how far the matched characters are
// from the canonical term.
package editdist

import "github.com/antzucaro/matchr"

// Distance returns the Levenshtein distance between a and b, counted in
// runes with unit cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	return matchr.Levenshtein(a, b)
}

// Within reports whether a and b differ by strictly fewer than limit edits.
func Within(a, b string, limit int) bool {
	return Distance(a, b) < limit
}
