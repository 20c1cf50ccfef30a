// Package dictionary compiles a table of canonical terms into fuzzy phonetic
// keys.
//
// Each [Term] pairs a canonical term (e.g. a medical term) with a reference
// romanization. The reference resolves polyphonic characters: for every
// character the first candidate reading that continues the reference at the
// current offset is chosen, falling back to the first candidate. Characters
// with no reading are kept literally. Chosen readings are folded by a
// [phonetic.Normalizer] and concatenated into the term's fuzzy key.
//
// Keys are unique. When two terms fold to the same key the first one is kept
// and the later one is recorded as a [Collision]; compilation never fails.
package dictionary

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrWong99/homonym/internal/transcript/phonetic"
	"github.com/MrWong99/homonym/pkg/acdat"
	"github.com/MrWong99/homonym/pkg/reading"
)

// Term is one row of the term table.
type Term struct {
	// Romanization is the reference reading of the whole term, e.g.
	// "xueyangbaohedu".
	Romanization string `yaml:"romanization" json:"romanization"`

	// Canonical is the correct spelling, e.g. "血氧饱和度".
	Canonical string `yaml:"canonical" json:"canonical"`
}

// Collision records a term whose fuzzy key was already taken.
type Collision struct {
	Key       string
	Kept      string
	Discarded string
}

// String implements fmt.Stringer.
func (c Collision) String() string {
	return fmt.Sprintf("key %q: kept %q, discarded %q", c.Key, c.Kept, c.Discarded)
}

// Option is a functional option for [Compile].
type Option func(*compiler)

// WithLogger sets the logger that receives collision and skip warnings.
// Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(c *compiler) {
		if l != nil {
			c.log = l
		}
	}
}

type compiler struct {
	norm     phonetic.Normalizer
	readings reading.Provider
	log      *slog.Logger
}

// Dictionary is the compiled fuzzy-key table. It is immutable and safe for
// concurrent use.
type Dictionary struct {
	entries    []acdat.Entry[string]
	index      map[string]string
	collisions []Collision
	skipped    []Term
}

// TermsFromMap converts a romanization → canonical map into terms ordered by
// romanization, which makes first-wins collision handling deterministic.
func TermsFromMap(m map[string]string) []Term {
	terms := make([]Term, 0, len(m))
	for rom, canon := range m {
		terms = append(terms, Term{Romanization: rom, Canonical: canon})
	}
	slices.SortFunc(terms, func(a, b Term) int { return strings.Compare(a.Romanization, b.Romanization) })
	return terms
}

// Compile builds a [Dictionary] from terms in order.
func Compile(terms []Term, norm phonetic.Normalizer, readings reading.Provider, opts ...Option) *Dictionary {
	c := &compiler{norm: norm, readings: readings, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}

	d := &Dictionary{index: make(map[string]string, len(terms))}
	for _, t := range terms {
		key := FuzzyKey(t.Canonical, t.Romanization, c.norm, c.readings)
		if key == "" {
			c.log.Warn("dictionary: skipping term with empty key",
				"canonical", t.Canonical,
				"romanization", t.Romanization,
			)
			d.skipped = append(d.skipped, t)
			continue
		}
		if kept, exists := d.index[key]; exists {
			col := Collision{Key: key, Kept: kept, Discarded: t.Canonical}
			d.collisions = append(d.collisions, col)
			c.log.Warn("dictionary: fuzzy key collision",
				"key", key,
				"kept", kept,
				"discarded", t.Canonical,
			)
			continue
		}
		d.index[key] = t.Canonical
		d.entries = append(d.entries, acdat.Entry[string]{Key: key, Value: t.Canonical})
	}
	slices.SortFunc(d.entries, func(a, b acdat.Entry[string]) int { return strings.Compare(a.Key, b.Key) })
	return d
}

// FuzzyKey computes the fuzzy key of canonical aligned against the reference
// romanization.
func FuzzyKey(canonical, romanization string, norm phonetic.Normalizer, readings reading.Provider) string {
	var sb strings.Builder
	offset := 0
	for _, r := range canonical {
		candidates := readings.Readings(r)
		if len(candidates) == 0 {
			sb.WriteString(norm.Normalize(string(r)))
			continue
		}
		chosen := candidates[0]
		for _, py := range candidates {
			if offset <= len(romanization) && strings.HasPrefix(romanization[offset:], py) {
				chosen = py
				break
			}
		}
		offset += len(chosen)
		sb.WriteString(norm.Normalize(chosen))
	}
	return sb.String()
}

// Entries returns the unique fuzzy-key entries sorted by key, ready for
// [acdat.Build]. The returned slice must not be modified.
func (d *Dictionary) Entries() []acdat.Entry[string] { return d.entries }

// Lookup returns the canonical term stored under a fuzzy key.
func (d *Dictionary) Lookup(key string) (string, bool) {
	v, ok := d.index[key]
	return v, ok
}

// Len returns the number of unique keys.
func (d *Dictionary) Len() int { return len(d.entries) }

// Collisions returns the terms discarded because their key was taken.
func (d *Dictionary) Collisions() []Collision { return slices.Clone(d.collisions) }

// Skipped returns the terms that produced an empty key.
func (d *Dictionary) Skipped() []Term { return slices.Clone(d.skipped) }
