package aliasgraph

import (
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// ErrAliasCycle is returned by [Graph.Validate] when aliases form a cycle.
var ErrAliasCycle = errors.New("aliases form a cycle")

// NodeKind distinguishes tokens from unresolved reference targets.
type NodeKind int

const (
	// NodeKindToken is a token of the source graph.
	NodeKindToken NodeKind = iota
	// NodeKindMissing stands for a reference that matches no token.
	NodeKindMissing
)

// Node is a token, or a reference target that does not exist.
type Node struct {
	ID         string // dot-joined path, or the reference as written
	Collection string
	Type       ir.Type
	Kind       NodeKind
	// Row is the alias round that creates the token, 0 for tokens with a
	// direct value and -1 for tokens that can never be created.
	Row int
	// Direct reports whether the token has at least one non-alias value.
	Direct bool
}

// IsMissing reports whether the node stands for an unresolved reference.
func (n Node) IsMissing() bool { return n.Kind == NodeKindMissing }

// Edge is one alias value. Self edges have From == To.
type Edge struct {
	From    string
	To      string
	Context ir.ContextKey
}

// Graph is the alias dependency graph of a token set. Build it with [Build];
// it is read-only afterwards.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string
}

// Build computes the alias graph of g.
func Build(g *ir.Graph) *Graph {
	out := &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
	}

	tokens := slices.Clone(g.Tokens)
	ir.SortTokens(tokens)

	byKey := make(map[string]*ir.Token, len(tokens))
	bySlug := make(map[string][]string)
	for _, tok := range tokens {
		if _, dup := byKey[tok.Key()]; dup {
			continue
		}
		byKey[tok.Key()] = tok
		coll := tok.Collection()
		slug := document.Slug(coll)
		if !slices.Contains(bySlug[slug], coll) {
			bySlug[slug] = append(bySlug[slug], coll)
		}

		direct := slices.ContainsFunc(tok.Values, func(cv ir.ContextValue) bool {
			return !cv.Value.IsAlias() && !cv.Value.IsEmpty()
		})
		out.addNode(&Node{
			ID:         tok.DotPath(),
			Collection: coll,
			Type:       tok.Type,
			Kind:       NodeKindToken,
			Direct:     direct,
		})
	}

	locate := func(tok *ir.Token, segs []string) (*ir.Token, bool) {
		for _, key := range candidateKeys(segs, tok.Collection(), bySlug) {
			if key == tok.Key() {
				continue
			}
			if t, ok := byKey[key]; ok {
				return t, true
			}
		}
		return nil, false
	}

	for _, tok := range tokens {
		if byKey[tok.Key()] != tok {
			continue
		}
		for _, cv := range tok.Values {
			if !cv.Value.IsAlias() {
				continue
			}
			to := document.FormatReference(cv.Value.Alias)
			switch target, ok := locate(tok, cv.Value.Alias); {
			case ok:
				to = target.DotPath()
			case isSelf(tok, cv.Value.Alias, bySlug):
				to = tok.DotPath()
			default:
				if _, seen := out.nodes[to]; !seen {
					out.addNode(&Node{ID: to, Kind: NodeKindMissing, Row: -1})
				}
			}
			out.edges = append(out.edges, Edge{From: tok.DotPath(), To: to, Context: cv.Context})
			if !slices.Contains(out.outgoing[tok.DotPath()], to) {
				out.outgoing[tok.DotPath()] = append(out.outgoing[tok.DotPath()], to)
			}
		}
	}

	out.assignRows()
	return out
}

// candidateKeys lists the slash-joined paths a reference may name, in
// lookup order.
func candidateKeys(segs []string, own string, bySlug map[string][]string) []string {
	if len(segs) == 0 {
		return nil
	}
	var keys []string
	if len(segs) >= 2 {
		keys = append(keys, ir.PathKey(segs))
	}
	keys = append(keys, ir.PathKey(append([]string{own}, segs...)))
	if len(segs) >= 2 {
		for _, coll := range bySlug[document.Slug(segs[0])] {
			if coll != segs[0] {
				keys = append(keys, ir.PathKey(append([]string{coll}, segs[1:]...)))
			}
		}
	}
	return keys
}

func isSelf(tok *ir.Token, segs []string, bySlug map[string][]string) bool {
	return slices.Contains(candidateKeys(segs, tok.Collection(), bySlug), tok.Key())
}

func (g *Graph) addNode(n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// assignRows replays the materializer's rounds: a token joins a round once
// any of its targets exists.
func (g *Graph) assignRows() {
	placed := make(map[string]bool)
	var pending []*Node
	for _, id := range g.order {
		n := g.nodes[id]
		switch {
		case n.IsMissing():
		case n.Direct:
			placed[id] = true
		case len(g.outgoing[id]) == 0:
			n.Row = -1
		default:
			pending = append(pending, n)
		}
	}

	for row := 1; len(pending) > 0; row++ {
		var ready, rest []*Node
		for _, n := range pending {
			if slices.ContainsFunc(g.outgoing[n.ID], func(to string) bool { return to != n.ID && placed[to] }) {
				ready = append(ready, n)
			} else {
				rest = append(rest, n)
			}
		}
		if len(ready) == 0 {
			for _, n := range rest {
				n.Row = -1
			}
			return
		}
		for _, n := range ready {
			n.Row = row
			placed[n.ID] = true
		}
		pending = rest
	}
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes, tokens in canonical order followed by missing
// targets in discovery order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		if !g.nodes[id].IsMissing() {
			out = append(out, g.nodes[id])
		}
	}
	for _, id := range g.order {
		if g.nodes[id].IsMissing() {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// Edges returns a copy of all edges in token order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Targets returns the distinct IDs node id aliases.
func (g *Graph) Targets(id string) []string { return g.outgoing[id] }

// Rounds returns the number of alias rounds needed to create every token
// that can be created.
func (g *Graph) Rounds() int {
	rounds := 0
	for _, n := range g.nodes {
		rounds = max(rounds, n.Row)
	}
	return rounds
}

// Stalled returns the IDs of tokens that can never be created, sorted.
func (g *Graph) Stalled() []string {
	var out []string
	for _, id := range g.order {
		if n := g.nodes[id]; !n.IsMissing() && n.Row < 0 {
			out = append(out, id)
		}
	}
	return out
}

// Collections returns the distinct token collections in node order.
func (g *Graph) Collections() []string {
	var out []string
	for _, id := range g.order {
		if n := g.nodes[id]; !n.IsMissing() && !slices.Contains(out, n.Collection) {
			out = append(out, n.Collection)
		}
	}
	return out
}

// Cycles returns every alias cycle as a list of node IDs starting at the
// smallest ID. Self references are cycles of length one.
func (g *Graph) Cycles() [][]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	seen := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, to := range g.outgoing[id] {
			switch color[to] {
			case white:
				dfs(to)
			case gray:
				start := slices.Index(stack, to)
				cycle := rotate(slices.Clone(stack[start:]))
				if key := strings.Join(cycle, "\x00"); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return cycles
}

// rotate turns a cycle so that it starts at its smallest ID.
func rotate(cycle []string) []string {
	i := slices.Index(cycle, slices.Min(cycle))
	return slices.Concat(cycle[i:], cycle[:i])
}

// Validate returns ErrAliasCycle if any alias cycle exists.
func (g *Graph) Validate() error {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return &CycleError{Cycle: cycles[0]}
	}
	return nil
}

// CycleError reports the first cycle found. It matches ErrAliasCycle.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return ErrAliasCycle.Error() + ": " + strings.Join(append(slices.Clone(e.Cycle), e.Cycle[0]), " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrAliasCycle }
