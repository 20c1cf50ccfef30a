// Package reading defines the phonetic reading service consumed by the
// homophone corrector.
//
// A [Provider] maps a single character to its candidate romanized readings,
// tone-stripped and lowercase. The corrector never derives readings itself;
// it only consumes them. A character with no readings is treated as opaque
// (punctuation, digits, Latin letters, whitespace).
//
// Implementations must be deterministic and order-stable: the first
// candidate is used as the default reading. They must be safe for concurrent
// use.
package reading

// Provider returns the candidate readings for a character.
type Provider interface {
	// Readings returns the ordered candidate readings for r. An empty (or
	// nil) slice means r has no phonetic representation.
	Readings(r rune) []string
}

// Func adapts an ordinary function to the [Provider] interface.
type Func func(r rune) []string

// Readings calls f(r).
func (f Func) Readings(r rune) []string { return f(r) }

// Static is a [Provider] backed by a fixed table. It is useful for tests and
// for small embedded vocabularies. The map must not be mutated after the
// Static value is in use.
type Static map[rune][]string

// Readings returns the table entry for r, or nil when r is absent.
func (s Static) Readings(r rune) []string { return s[r] }

// Representable reports whether p knows at least one reading for r.
func Representable(p Provider, r rune) bool {
	return len(p.Readings(r)) > 0
}

// Compile-time interface checks.
var (
	_ Provider = Func(nil)
	_ Provider = Static(nil)
)
