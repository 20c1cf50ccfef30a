package transcript

import (
	"strings"

	"github.com/MrWong99/homonym/pkg/reading"
)

// Sentence is one segment of the input text.
type Sentence struct {
	// Text is the segment content.
	Text string

	// Start is the rune offset of the segment in the input.
	Start int

	// Phonetic is true for runs of characters that all have readings.
	Phonetic bool

	runes []rune
}

// Len returns the segment length in runes.
func (s Sentence) Len() int { return len(s.runes) }

// Segment splits text into maximal runs of characters that p can read and
// single-character segments for everything else. Concatenating the Text of
// all segments reproduces text exactly, including a trailing run.
func Segment(text string, p reading.Provider) []Sentence {
	runes := []rune(text)
	var out []Sentence
	emit := func(from, to int, phonetic bool) {
		seg := runes[from:to:to]
		out = append(out, Sentence{Text: string(seg), Start: from, Phonetic: phonetic, runes: seg})
	}

	start := 0
	for i, r := range runes {
		if reading.Representable(p, r) {
			continue
		}
		if start < i {
			emit(start, i, true)
		}
		emit(i, i+1, false)
		start = i + 1
	}
	if start < len(runes) {
		emit(start, len(runes), true)
	}
	return out
}

// Join concatenates segment texts in order.
func Join(sentences []Sentence) string {
	var sb strings.Builder
	for _, s := range sentences {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
