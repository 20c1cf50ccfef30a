// Package acdat implements an Aho-Corasick automaton compiled into a
// double-array trie.
//
// An [Automaton] is built once from an ordered list of (key, value) entries
// and is immutable afterwards. Scanning a text costs time proportional to the
// length of the text plus the number of hits, independent of the number of
// patterns.
//
// Construction happens in four steps:
//
//  1. Every key is inserted into an index-addressed trie arena.
//  2. Failure links are computed breadth-first from depth 1.
//  3. Accepted pattern ids are propagated along failure links in the same
//     breadth-first order, so a scan only consults the current state.
//  4. The trie is compiled into parallel base/check arrays over a dense
//     alphabet: for state s and code c the candidate next state is
//     base[s]+c, which is valid iff check[base[s]+c] == s. Each state's
//     transition block is placed at the first region where none of its
//     slots is taken; the arrays grow when no such region exists yet.
//
// All offsets reported in a [Hit] are rune offsets into the scanned text.
//
// An Automaton is safe for concurrent use by multiple goroutines.
package acdat

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

var (
	// ErrEmptyKey is returned by [Build] when an entry has an empty key.
	ErrEmptyKey = errors.New("acdat: empty key")

	// ErrDuplicateKey is returned by [Build] when two entries share a key.
	ErrDuplicateKey = errors.New("acdat: duplicate key")
)

// free marks an unused slot in the check array.
const free int32 = -1

// Entry is a single pattern and the value reported when it matches.
type Entry[V any] struct {
	Key   string
	Value V
}

// Hit is a match of one pattern in a scanned text. Begin and End form a
// half-open rune range [Begin, End).
type Hit[V any] struct {
	Begin int
	End   int
	Value V
}

// Automaton is a compiled double-array Aho-Corasick automaton.
type Automaton[V any] struct {
	base  []int32
	check []int32
	fail  []int32

	// output lists, per slot, every pattern id accepted on landing there,
	// including those inherited through failure links. Longest first.
	output [][]int32

	// terminal is the pattern id whose key ends exactly at a slot, or -1.
	terminal []int32

	values  []V
	lengths []int

	// Dense alphabet: codes start at 1; 0 means the rune occurs in no key.
	ascii [utf8.RuneSelf]int32
	codes map[rune]int32
}

// Build compiles entries into an [Automaton]. Pattern ids are the entry
// positions, so hits ending at the same offset are reported longest key
// first. Build returns an error wrapping [ErrEmptyKey] or [ErrDuplicateKey]
// for invalid input. An empty entry list yields an automaton that never
// matches.
func Build[V any](entries []Entry[V]) (*Automaton[V], error) {
	a := &Automaton[V]{
		values:  make([]V, len(entries)),
		lengths: make([]int, len(entries)),
		codes:   map[rune]int32{},
	}

	seen := make(map[string]int, len(entries))
	t := newTrie()
	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("%w at entry %d", ErrEmptyKey, i)
		}
		if prev, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("%w %q at entries %d and %d", ErrDuplicateKey, e.Key, prev, i)
		}
		seen[e.Key] = i
		t.insert(e.Key, i)
		a.values[i] = e.Value
		a.lengths[i] = utf8.RuneCountInString(e.Key)
	}

	a.buildAlphabet(entries)
	t.link()
	a.compile(t)
	return a, nil
}

// buildAlphabet assigns dense codes to every rune used by any key, in
// ascending rune order.
func (a *Automaton[V]) buildAlphabet(entries []Entry[V]) {
	set := map[rune]struct{}{}
	for _, e := range entries {
		for _, r := range e.Key {
			set[r] = struct{}{}
		}
	}
	runes := make([]rune, 0, len(set))
	for r := range set {
		runes = append(runes, r)
	}
	slices.Sort(runes)
	for i, r := range runes {
		code := int32(i + 1)
		if r < utf8.RuneSelf {
			a.ascii[r] = code
		} else {
			a.codes[r] = code
		}
	}
}

// code returns the dense alphabet code of r, or 0 when r occurs in no key.
func (a *Automaton[V]) code(r rune) int32 {
	if r >= 0 && r < utf8.RuneSelf {
		return a.ascii[r]
	}
	return a.codes[r]
}

// compile lays the linked trie out in the base/check/fail arrays.
func (a *Automaton[V]) compile(t *trie) {
	b := &layout{}
	b.grow(1)
	b.check[0] = 0
	b.nextFree = 1
	t.nodes[root].index = 0

	for _, n := range t.order {
		idx := t.nodes[n].index
		labels := t.labels(n)
		if len(labels) == 0 {
			continue
		}
		codes := make([]int32, len(labels))
		for i, r := range labels {
			codes[i] = a.code(r)
		}
		base := b.place(codes)
		b.base[idx] = base
		for i, r := range labels {
			slot := base + codes[i]
			b.check[slot] = idx
			t.nodes[t.nodes[n].children[r]].index = slot
		}
		b.advance()
	}

	size := len(b.check)
	for size > 1 && b.check[size-1] == free {
		size--
	}
	a.base = b.base[:size:size]
	a.check = b.check[:size:size]
	a.fail = make([]int32, size)
	a.output = make([][]int32, size)
	a.terminal = make([]int32, size)
	for i := range a.terminal {
		a.terminal[i] = -1
	}

	for _, n := range t.order {
		nd := &t.nodes[n]
		a.fail[nd.index] = t.nodes[nd.fail].index
		if len(nd.outputs) > 0 {
			out := make([]int32, len(nd.outputs))
			for i, id := range nd.outputs {
				out[i] = int32(id)
			}
			a.output[nd.index] = out
		}
		if len(nd.emits) > 0 {
			a.terminal[nd.index] = int32(nd.emits[0])
		}
	}
}

// layout holds the growing double-array while states are placed.
type layout struct {
	base     []int32
	check    []int32
	nextFree int
}

// grow extends the arrays to at least n slots, doubling to amortise
// repeated growth.
func (l *layout) grow(n int) {
	if n <= len(l.check) {
		return
	}
	size := max(n, 2*len(l.check))
	for len(l.check) < size {
		l.base = append(l.base, 0)
		l.check = append(l.check, free)
	}
}

// place finds the lowest base for which every slot base+c is unused. codes
// must be ascending and non-zero.
func (l *layout) place(codes []int32) int32 {
	begin := max(int32(l.nextFree)-codes[0], 0)
	for ; ; begin++ {
		l.grow(int(begin+codes[len(codes)-1]) + 1)
		if l.fits(begin, codes) {
			return begin
		}
	}
}

func (l *layout) fits(base int32, codes []int32) bool {
	for _, c := range codes {
		if l.check[base+c] != free {
			return false
		}
	}
	return true
}

// advance moves nextFree past slots taken by the latest placement.
func (l *layout) advance() {
	for l.nextFree < len(l.check) && l.check[l.nextFree] != free {
		l.nextFree++
	}
}

// transition returns the state reached from s on r, reporting false when the
// check array does not confirm the transition.
func (a *Automaton[V]) transition(s int32, r rune) (int32, bool) {
	c := a.code(r)
	if c == 0 {
		return 0, false
	}
	t := a.base[s] + c
	if t <= 0 || int(t) >= len(a.check) || a.check[t] != s {
		return 0, false
	}
	return t, true
}

// ParseText scans text and returns every hit, in order of End and, for hits
// ending at the same offset, longest first. Overlapping and nested hits are
// all reported.
func (a *Automaton[V]) ParseText(text string) []Hit[V] {
	var hits []Hit[V]
	a.ParseTextFunc(text, func(h Hit[V]) bool {
		hits = append(hits, h)
		return true
	})
	return hits
}

// ParseTextFunc scans text and calls fn for every hit in the order described
// by [Automaton.ParseText]. Scanning stops early when fn returns false.
func (a *Automaton[V]) ParseTextFunc(text string, fn func(Hit[V]) bool) {
	var cur int32
	pos := 0
	for _, r := range text {
		pos++
		for {
			if next, ok := a.transition(cur, r); ok {
				cur = next
				break
			}
			if cur == 0 {
				break
			}
			cur = a.fail[cur]
		}
		for _, id := range a.output[cur] {
			h := Hit[V]{Begin: pos - a.lengths[id], End: pos, Value: a.values[id]}
			if !fn(h) {
				return
			}
		}
	}
}

// Matches reports whether any pattern occurs in text.
func (a *Automaton[V]) Matches(text string) bool {
	found := false
	a.ParseTextFunc(text, func(Hit[V]) bool {
		found = true
		return false
	})
	return found
}

// Get returns the value stored for exactly key.
func (a *Automaton[V]) Get(key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}
	var cur int32
	for _, r := range key {
		next, ok := a.transition(cur, r)
		if !ok {
			return zero, false
		}
		cur = next
	}
	id := a.terminal[cur]
	if id < 0 {
		return zero, false
	}
	return a.values[id], true
}

// Len returns the number of patterns.
func (a *Automaton[V]) Len() int { return len(a.values) }

// Size returns the number of slots in the compiled arrays.
func (a *Automaton[V]) Size() int { return len(a.check) }
