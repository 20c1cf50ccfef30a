package transcript

import (
	"strings"

	"github.com/MrWong99/homonym/internal/transcript/phonetic"
	"github.com/MrWong99/homonym/pkg/reading"
)

// PositionMap holds the syllable length, in runes, of each character of a
// transliterated sentence. Its prefix sums are the character boundaries in
// phonetic space.
type PositionMap []int

// MapRange translates the phonetic range [begin, end) into character offsets.
// It reports false unless both begin and end fall on character boundaries.
func (m PositionMap) MapRange(begin, end int) (from, to int, ok bool) {
	if begin < 0 || end <= begin {
		return 0, 0, false
	}
	from, to = -1, -1
	sum := 0
	if begin == 0 {
		from = 0
	}
	for i, n := range m {
		sum += n
		switch {
		case sum == begin:
			from = i + 1
		case sum == end:
			to = i + 1
		}
		if sum >= end {
			break
		}
	}
	if from < 0 || to < 0 {
		return 0, 0, false
	}
	return from, to, true
}

// Transliterate renders runes in the fuzzy phonetic alphabet: the first
// reading of each character folded by norm, or the character itself when it
// has no reading.
func Transliterate(runes []rune, p reading.Provider, norm phonetic.Normalizer) (string, PositionMap) {
	var sb strings.Builder
	pm := make(PositionMap, len(runes))
	for i, r := range runes {
		candidates := p.Readings(r)
		if len(candidates) == 0 {
			sb.WriteRune(r)
			pm[i] = 1
			continue
		}
		syl := norm.Normalize(candidates[0])
		sb.WriteString(syl)
		pm[i] = len([]rune(syl))
	}
	return sb.String(), pm
}
