package aliasgraph

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	g := build(t, `{
		"A":{"x":{"$type":"number","$value":1}},
		"B":{"y":{"$value":"{A.x}"},"gone":{"$type":"number","$value":"{A.none}"}}
	}`)

	dot := ToDOT(g, Options{})
	for _, want := range []string{
		"digraph G {",
		"subgraph cluster_0 {",
		`label="A";`,
		`"A.x" [label="A.x", penwidth=2];`,
		`"B.gone" [label="B.gone", color=red, fontcolor=red];`,
		`"{A.none}" [label="{A.none}", style="rounded,filled,dashed"`,
		`"B.y" -> "A.x";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}

	detailed := ToDOT(g, Options{Detailed: true})
	for _, want := range []string{
		`label="B.y\nuntyped, round 1"`,
		`label="B.gone\nnumber, stalled"`,
		`"B.y" -> "A.x" [label="B/Mode 1"];`,
	} {
		if !strings.Contains(detailed, want) {
			t.Errorf("detailed DOT missing %q\n%s", want, detailed)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	g := build(t, `{"A":{"x":{"$type":"number","$value":1},"y":{"$value":"{A.x}"}}}`)

	svg, err := RenderSVG(context.Background(), ToDOT(g, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", svg)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("viewBox not normalized")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
