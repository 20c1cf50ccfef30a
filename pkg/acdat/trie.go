package acdat

import (
	"maps"
	"slices"
)

// root is the arena index of the trie root.
const root = 0

// node is a build-time trie state. All references are arena indices, so the
// failure links form no ownership cycles and map directly onto the compiled
// arrays.
type node struct {
	depth    int
	children map[rune]int
	// emits holds the pattern ids accepted exactly at this node.
	emits []int
	// outputs is emits plus the outputs of the failure state, own ids first.
	outputs []int
	fail    int
	// index is the slot assigned during double-array compilation.
	index int32
}

// trie is the arena used while building an [Automaton]. It is discarded once
// the double-array form has been compiled.
type trie struct {
	nodes []node
	// order lists every node in breadth-first order, root first.
	order []int
}

func newTrie() *trie {
	return &trie{nodes: []node{{children: map[rune]int{}}}}
}

// insert adds key to the trie and records id at its terminal node.
func (t *trie) insert(key string, id int) {
	cur := root
	for _, r := range key {
		next, ok := t.nodes[cur].children[r]
		if !ok {
			next = len(t.nodes)
			t.nodes = append(t.nodes, node{
				depth:    t.nodes[cur].depth + 1,
				children: map[rune]int{},
			})
			t.nodes[cur].children[r] = next
		}
		cur = next
	}
	t.nodes[cur].emits = append(t.nodes[cur].emits, id)
}

// labels returns the transition runes of n in ascending order.
func (t *trie) labels(n int) []rune {
	return slices.Sorted(maps.Keys(t.nodes[n].children))
}

// link computes failure links and failure-propagated outputs in a single
// breadth-first pass. A node's failure state is always shallower than the
// node itself, so its links and outputs are resolved before they are read.
func (t *trie) link() {
	t.order = append(t.order[:0], root)
	t.nodes[root].fail = root
	t.nodes[root].outputs = t.nodes[root].emits

	for head := 0; head < len(t.order); head++ {
		parent := t.order[head]
		for _, r := range t.labels(parent) {
			child := t.nodes[parent].children[r]
			fail := root
			if parent != root {
				f := t.nodes[parent].fail
				for {
					if next, ok := t.nodes[f].children[r]; ok {
						fail = next
						break
					}
					if f == root {
						break
					}
					f = t.nodes[f].fail
				}
			}
			c := &t.nodes[child]
			c.fail = fail
			c.outputs = make([]int, 0, len(c.emits)+len(t.nodes[fail].outputs))
			c.outputs = append(c.outputs, c.emits...)
			c.outputs = append(c.outputs, t.nodes[fail].outputs...)
			t.order = append(t.order, child)
		}
	}
}
