// Package mock provides a test double for the reading.Provider interface.
//
// Provider answers from a fixed table and records every character it was
// asked about, so tests can assert how often the corrector consults the
// reading service.
//
// Example:
//
//	p := &mock.Provider{Table: reading.Static{'血': {"xue", "xie"}}}
//	_ = p.Readings('血')
//	calls := p.Calls() // ['血']
package mock

import (
	"sync"

	"github.com/MrWong99/homonym/pkg/reading"
)

// Provider is a mock implementation of reading.Provider.
type Provider struct {
	mu sync.Mutex

	// Table holds the readings returned by Readings. Characters absent from
	// the table have no readings.
	Table reading.Static

	calls []rune
}

// Compile-time interface check.
var _ reading.Provider = (*Provider)(nil)

// Readings records the call and returns Table[r].
func (p *Provider) Readings(r rune) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, r)
	return p.Table[r]
}

// Calls returns a copy of every character passed to Readings, in call order.
func (p *Provider) Calls() []rune {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]rune, len(p.calls))
	copy(out, p.calls)
	return out
}

// Reset clears the recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
