// Package pinyin implements [reading.Provider] on top of
// github.com/mozillazg/go-pinyin.
//
// Readings are tone-stripped Hanyu Pinyin with every heteronym of the
// character, most common first. The vowel ü is spelled v. Any reading the
// library returns that is not a plain lowercase a–z syllable after that fold
// is dropped; a character left with no readings is treated as opaque by the
// corrector.
package pinyin

import (
	"strings"

	gopinyin "github.com/mozillazg/go-pinyin"

	"github.com/MrWong99/homonym/pkg/reading"
)

// Provider is a [reading.Provider] backed by the go-pinyin dictionary.
// It is read-only and safe for concurrent use.
type Provider struct {
	args gopinyin.Args
}

// Compile-time interface check.
var _ reading.Provider = (*Provider)(nil)

// Option is a functional option for configuring a [Provider].
type Option func(*Provider)

// WithHeteronyms controls whether every reading of a polyphonic character is
// returned (the default) or only the most common one.
func WithHeteronyms(enabled bool) Option {
	return func(p *Provider) {
		p.args.Heteronym = enabled
	}
}

// New returns a [Provider] configured with the supplied options.
func New(opts ...Option) *Provider {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.Normal
	args.Heteronym = true
	args.Fallback = func(rune, gopinyin.Args) []string { return nil }

	p := &Provider{args: args}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Readings returns the candidate readings of r, or nil when r is not a Han
// character known to the dictionary.
func (p *Provider) Readings(r rune) []string {
	raw := gopinyin.SinglePinyin(r, p.args)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, py := range raw {
		py = strings.ReplaceAll(strings.ToLower(py), "ü", "v")
		if !wellFormed(py) || contains(out, py) {
			continue
		}
		out = append(out, py)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// wellFormed reports whether s is a non-empty string over a–z.
func wellFormed(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
