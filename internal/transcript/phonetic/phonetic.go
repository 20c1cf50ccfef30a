// Package phonetic folds tone-stripped Pinyin syllables into a fuzzy
// phonetic alphabet so that commonly confused sounds compare equal.
//
// Folding proceeds in two independent stages, each applying at most one rule
// (the first rule that matches wins):
//
//  1. Initial fold: sh→s, ch→c, zh→z, n→l, r→l, h→f. Only the matched prefix
//     is replaced.
//
//  2. Final fold: iang→ian, uang→uan, ang→an, eng→en, ing→in. Only the
//     matched suffix is replaced.
//
// Both stages may change the same syllable, so "shang" becomes "san" and
// "huang" becomes "fuan". Folding a Pinyin syllable is idempotent. Strings
// that are not syllables may fold further on a second pass: "shh" folds to
// "sh", which folds to "s".
package phonetic

import "strings"

// fold is a single prefix or suffix rewrite.
type fold struct {
	from string
	to   string
}

// initials are checked in order; the two-letter retroflex initials must come
// before the single-letter rules.
var initials = []fold{
	{"sh", "s"},
	{"ch", "c"},
	{"zh", "z"},
	{"n", "l"},
	{"r", "l"},
	{"h", "f"},
}

// finals are checked in order; iang and uang must come before ang.
var finals = []fold{
	{"iang", "ian"},
	{"uang", "uan"},
	{"ang", "an"},
	{"eng", "en"},
	{"ing", "in"},
}

// Normalizer applies the fuzzy fold to syllables. The zero value has fuzzy
// folding disabled and behaves as the identity function.
//
// Normalizer is an immutable value and safe for concurrent use.
type Normalizer struct {
	fuzzy bool
}

// New returns a [Normalizer]. When fuzzy is false, [Normalizer.Normalize]
// returns its input unchanged.
func New(fuzzy bool) Normalizer {
	return Normalizer{fuzzy: fuzzy}
}

// Fuzzy reports whether fuzzy folding is enabled.
func (n Normalizer) Fuzzy() bool { return n.fuzzy }

// Normalize returns the folded form of syllable.
func (n Normalizer) Normalize(syllable string) string {
	if !n.fuzzy {
		return syllable
	}
	s := syllable
	for _, f := range initials {
		if strings.HasPrefix(s, f.from) {
			s = f.to + s[len(f.from):]
			break
		}
	}
	for _, f := range finals {
		if strings.HasSuffix(s, f.from) {
			s = s[:len(s)-len(f.from)] + f.to
			break
		}
	}
	return s
}
