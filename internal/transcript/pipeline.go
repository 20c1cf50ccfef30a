// Package transcript corrects homophone errors in Chinese text produced by
// speech-to-text engines or phonetic keyboards.
//
// Raw transcripts often spell a domain term (a drug name, a lab value) with
// characters that sound right but are wrong, e.g. 雪养饱合度 for 血氧饱和度.
// A [Reviser] recognises such runs by pronunciation and replaces them with
// the canonical term:
//
//  1. The text is split into [Sentence] values: maximal runs of characters
//     with a phonetic reading, and single opaque characters (punctuation,
//     digits, Latin letters, whitespace) that always pass through.
//  2. Each run is transliterated into the fuzzy phonetic alphabet of
//     package phonetic, recording every character's syllable length in a
//     [PositionMap].
//  3. The phonetic string is scanned by a double-array Aho-Corasick
//     automaton compiled from the term dictionary.
//  4. Every hit is mapped back to character offsets; hits that do not fall on
//     syllable boundaries are dropped.
//  5. A hit whose characters are within the edit-distance limit of the
//     canonical term replaces the first occurrence of those characters.
//
// Each [Correction] records the substitution and its edit distance, so
// callers can audit, display, or selectively roll back changes.
//
// A Reviser is immutable after construction and safe for concurrent use.
package transcript

import "context"

// MethodHomophone is the [Correction.Method] of substitutions made by the
// phonetic automaton.
const MethodHomophone = "homophone"

// Correction captures a single substitution made by the pipeline.
type Correction struct {
	// Original is the run of characters found in the input.
	Original string

	// Corrected is the canonical term that replaced Original.
	Corrected string

	// Distance is the edit distance between Original and Corrected.
	Distance int

	// Begin and End are the rune offsets of the hit in the input text.
	// Substitution replaces the first occurrence of Original within the
	// sentence, which may precede Begin when Original repeats.
	Begin int
	End   int

	// Method describes which correction stage produced this substitution.
	Method string
}

// Stats counts what happened while correcting one text.
type Stats struct {
	// Sentences is the number of segments the text was split into.
	Sentences int

	// Hits is the number of automaton hits across all sentences.
	Hits int

	// Unmapped counts hits that did not align with syllable boundaries.
	Unmapped int

	// Rejected counts hits at or beyond the edit-distance limit.
	Rejected int

	// Applied counts substitutions that changed the text.
	Applied int
}

// CorrectedText is the output of a [Corrector.Correct] call.
type CorrectedText struct {
	// Original is the input text.
	Original string

	// Corrected is the text with all substitutions applied.
	Corrected string

	// Corrections is the ordered list of substitutions applied to produce
	// Corrected. An empty (non-nil) slice means nothing was changed.
	Corrections []Correction

	Stats Stats
}

// Corrector is implemented by [Reviser]. It exists so that outer layers
// (the HTTP server, the app) can be tested against doubles.
type Corrector interface {
	// Revise returns text with homophone errors corrected. It never fails;
	// anything the pipeline cannot classify passes through unchanged.
	Revise(text string) string

	// Correct is like Revise but also reports every substitution.
	Correct(ctx context.Context, text string) *CorrectedText

	// CorrectAll corrects texts concurrently, preserving order. It fails
	// only when ctx is cancelled.
	CorrectAll(ctx context.Context, texts []string) ([]*CorrectedText, error)
}
