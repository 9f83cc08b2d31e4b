package aliasgraph

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/ir"
)

func build(t *testing.T, doc string) *Graph {
	t.Helper()
	g, err := document.ReadBytes([]byte(doc), document.ReadOptions{}, nil)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	return Build(g)
}

func TestBuildRows(t *testing.T) {
	g := build(t, `{
		"A":{"x":{"$type":"number","$value":1}},
		"B":{"y":{"$value":"{A.x}"},"z":{"$value":"{B.y}"}},
		"C":{"mixed":{"$type":"number","$value":2}}
	}`)

	tests := []struct {
		id  string
		row int
	}{
		{"A.x", 0},
		{"B.y", 1},
		{"B.z", 2},
		{"C.mixed", 0},
	}
	for _, tt := range tests {
		n, ok := g.Node(tt.id)
		if !ok {
			t.Fatalf("node %s missing", tt.id)
		}
		if n.Row != tt.row {
			t.Errorf("%s row = %d, want %d", tt.id, n.Row, tt.row)
		}
	}
	if got := g.Rounds(); got != 2 {
		t.Errorf("Rounds() = %d, want 2", got)
	}
	if got := g.Stalled(); len(got) != 0 {
		t.Errorf("Stalled() = %v, want none", got)
	}
	if got := g.Targets("B.z"); !slices.Equal(got, []string{"B.y"}) {
		t.Errorf("Targets(B.z) = %v", got)
	}
}

func TestBuildResolvesLikeMaterializer(t *testing.T) {
	g := build(t, `{
		"Brand Colors":{"red":{"$type":"color","$value":{"colorSpace":"srgb","components":[1,0,0]}}},
		"Semantic":{
			"base":{"$type":"number","$value":4},
			"relative":{"$value":"{base}"},
			"slugged":{"$value":"{brand-colors.red}"}
		}}`)

	want := map[string]string{
		"Semantic.relative": "Semantic.base",
		"Semantic.slugged":  "Brand Colors.red",
	}
	for _, e := range g.Edges() {
		if want[e.From] != e.To {
			t.Errorf("edge %s -> %s, want -> %s", e.From, e.To, want[e.From])
		}
	}
	if len(g.Edges()) != 2 {
		t.Errorf("got %d edges, want 2", len(g.Edges()))
	}
}

func TestBuildMissingAndSelf(t *testing.T) {
	g := build(t, `{"C":{"$type":"number",
		"gone":{"$value":"{C.nothing}"},
		"self":{"$value":"{self}"}}}`)

	n, ok := g.Node("{C.nothing}")
	if !ok || !n.IsMissing() {
		t.Fatalf("expected missing node for {C.nothing}")
	}
	if got := g.Stalled(); !slices.Equal(got, []string{"C.gone", "C.self"}) {
		t.Errorf("Stalled() = %v", got)
	}
	if got := g.Targets("C.self"); !slices.Equal(got, []string{"C.self"}) {
		t.Errorf("Targets(C.self) = %v, want self edge", got)
	}
	// Missing nodes come after every token.
	nodes := g.Nodes()
	if last := nodes[len(nodes)-1]; !last.IsMissing() {
		t.Errorf("last node = %s, want the missing target", last.ID)
	}
}

func TestCycles(t *testing.T) {
	g := build(t, `{"C":{"$type":"number",
		"ok":{"$value":1},
		"c":{"$value":"{C.a}"},
		"a":{"$value":"{C.b}"},
		"b":{"$value":"{C.c}"},
		"loop":{"$value":"{C.loop}"},
		"tail":{"$value":"{C.a}"}}}`)

	got := g.Cycles()
	want := [][]string{{"C.a", "C.b", "C.c"}, {"C.loop"}}
	if len(got) != len(want) {
		t.Fatalf("Cycles() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("cycle %d = %v, want %v", i, got[i], want[i])
		}
	}

	err := g.Validate()
	if !errors.Is(err, ErrAliasCycle) {
		t.Fatalf("Validate() = %v, want ErrAliasCycle", err)
	}
	if msg := err.Error(); msg != "aliases form a cycle: C.a -> C.b -> C.c -> C.a" {
		t.Errorf("Error() = %q", msg)
	}
	if got := g.Stalled(); len(got) != 5 {
		t.Errorf("Stalled() = %v, want 5 tokens", got)
	}
}

func TestValidateAcyclic(t *testing.T) {
	tok := &ir.Token{Path: []string{"A", "x"}, Type: ir.TypeNumber}
	tok.Set("A/Mode 1", ir.ScalarValue(1.0))
	if err := Build(ir.NewGraph(tok)).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestMultiContextAliasUsesShallowestTarget(t *testing.T) {
	deep := &ir.Token{Path: []string{"C", "deep"}}
	deep.Set("C/Mode 1", ir.AliasValue("C", "mid"))
	mid := &ir.Token{Path: []string{"C", "mid"}}
	mid.Set("C/Mode 1", ir.AliasValue("C", "root"))
	root := &ir.Token{Path: []string{"C", "root"}, Type: ir.TypeNumber}
	root.Set("C/Mode 1", ir.ScalarValue(1.0))
	both := &ir.Token{Path: []string{"C", "both"}}
	both.Set("C/Light", ir.AliasValue("C", "deep"))
	both.Set("C/Dark", ir.AliasValue("C", "root"))

	g := Build(ir.NewGraph(deep, mid, root, both))
	n, _ := g.Node("C.both")
	if n.Row != 1 {
		t.Errorf("C.both row = %d, want 1", n.Row)
	}
	if got := g.Rounds(); got != 2 {
		t.Errorf("Rounds() = %d, want 2", got)
	}
}
