// Package termstore loads the term table that the corrector compiles into its
// dictionary. Terms may come from the configuration file, a YAML term file,
// or a PostgreSQL table; [Chain] combines several sources in order.
package termstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/homonym/internal/dictionary"
)

// ErrInvalidTerm is wrapped by loaders that reject a term with an empty
// romanization or canonical spelling.
var ErrInvalidTerm = errors.New("termstore: invalid term")

// Store provides read access to a term table.
// Implementations must be safe for concurrent use.
type Store interface {
	// Terms returns every term in a deterministic order. Order matters:
	// when two terms fold to the same fuzzy key the earlier one wins.
	Terms(ctx context.Context) ([]dictionary.Term, error)
}

// Static is a fixed in-memory term list.
type Static []dictionary.Term

// Compile-time interface check.
var _ Store = Static(nil)

// FromMap returns a [Static] store holding m ordered by romanization.
func FromMap(m map[string]string) Static {
	return Static(dictionary.TermsFromMap(m))
}

// Terms returns a copy of s.
func (s Static) Terms(context.Context) ([]dictionary.Term, error) {
	out := make([]dictionary.Term, len(s))
	copy(out, s)
	return out, nil
}

// Chain concatenates the terms of several stores in order.
type Chain []Store

// Compile-time interface check.
var _ Store = Chain(nil)

// Terms returns the terms of every store, earlier stores first. It fails on
// the first store that fails.
func (c Chain) Terms(ctx context.Context) ([]dictionary.Term, error) {
	var out []dictionary.Term
	for i, s := range c {
		terms, err := s.Terms(ctx)
		if err != nil {
			return nil, fmt.Errorf("termstore: source %d: %w", i, err)
		}
		out = append(out, terms...)
	}
	return out, nil
}

// validate checks that t has both fields set.
func validate(t dictionary.Term) error {
	if t.Romanization == "" {
		return fmt.Errorf("%w: empty romanization for %q", ErrInvalidTerm, t.Canonical)
	}
	if t.Canonical == "" {
		return fmt.Errorf("%w: empty canonical term for %q", ErrInvalidTerm, t.Romanization)
	}
	return nil
}
