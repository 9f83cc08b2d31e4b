package ir

import (
	"cmp"
	"slices"
)

// Graph is an ordered list of tokens with unique paths.
//
// The zero value is ready to use.
type Graph struct {
	Tokens []*Token
	index  map[string]*Token
}

// NewGraph creates a graph from tokens, dropping later duplicates.
func NewGraph(tokens ...*Token) *Graph {
	g := &Graph{}
	for _, t := range tokens {
		g.Add(t)
	}
	return g
}

// Add appends t unless a token with the same slash-joined path already
// exists. It reports whether t was added.
func (g *Graph) Add(t *Token) bool {
	if g.index == nil {
		g.reindex()
	}
	key := t.Key()
	if _, exists := g.index[key]; exists {
		return false
	}
	g.index[key] = t
	g.Tokens = append(g.Tokens, t)
	return true
}

// Lookup returns the token whose path equals path exactly.
func (g *Graph) Lookup(path []string) (*Token, bool) {
	if g.index == nil {
		g.reindex()
	}
	t, ok := g.index[PathKey(path)]
	return t, ok
}

// Len returns the number of tokens.
func (g *Graph) Len() int { return len(g.Tokens) }

// Canonicalize sorts tokens by dot-joined path. Ties, which are only
// possible when segments contain dots, fall back to the slash-joined path.
func (g *Graph) Canonicalize() { SortTokens(g.Tokens) }

// SortTokens sorts tokens into canonical order in place.
func SortTokens(tokens []*Token) {
	slices.SortStableFunc(tokens, func(a, b *Token) int {
		if c := cmp.Compare(a.DotPath(), b.DotPath()); c != 0 {
			return c
		}
		return cmp.Compare(a.Key(), b.Key())
	})
}

// Collections returns the distinct path-derived collection names in token
// order.
func (g *Graph) Collections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range g.Tokens {
		c := t.Collection()
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{}
	for _, t := range g.Tokens {
		out.Add(t.Clone())
	}
	return out
}

func (g *Graph) reindex() {
	g.index = make(map[string]*Token, len(g.Tokens))
	for _, t := range g.Tokens {
		if _, exists := g.index[t.Key()]; !exists {
			g.index[t.Key()] = t
		}
	}
}
