package aliasgraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the token type and row to node labels and the context
	// to edge labels.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT source. Each collection becomes a
// cluster; missing targets are drawn dashed and stalled tokens red.
func ToDOT(g *Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	nodes := g.Nodes()
	for i, coll := range g.Collections() {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", coll)
		buf.WriteString("    style=\"rounded\";\n")
		for _, n := range nodes {
			if !n.IsMissing() && n.Collection == coll {
				fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(fmtAttrs(*n, opts.Detailed), ", "))
			}
		}
		buf.WriteString("  }\n")
	}

	var missing bool
	for _, n := range nodes {
		if n.IsMissing() {
			if !missing {
				buf.WriteString("\n")
				missing = true
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(*n, opts.Detailed), ", "))
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		var attrs []string
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", string(e.Context)))
		}
		if e.From == e.To {
			attrs = append(attrs, "color=red")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	if !detailed || n.IsMissing() {
		return n.ID
	}
	row := "stalled"
	if n.Row >= 0 {
		row = fmt.Sprintf("round %d", n.Row)
	}
	typ := string(n.Type)
	if typ == "" {
		typ = "untyped"
	}
	return n.ID + "\n" + typ + ", " + row
}

func fmtAttrs(n Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.IsMissing():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case n.Row < 0:
		attrs = append(attrs, "color=red", "fontcolor=red")
	case n.Direct:
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root tag so the SVG scales from its origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
