// Package aliasgraph analyzes alias dependencies between tokens.
//
// # Overview
//
// A [Graph] has one node per token and one edge per alias value, pointing
// from the aliasing token to its target. Targets are located the same way
// the materializer locates them: the literal path, then the path relative to
// the aliasing token's collection, then the literal path with its collection
// matched by slug. References that match nothing produce a missing node.
//
// # Rows
//
// Every node gets a row. Tokens with at least one direct value sit in row 0.
// An alias-only token sits one row below the shallowest target it can reach,
// which is exactly the alias round in which the materializer creates it.
// Tokens that can never be created (cycles, self references, missing
// targets) get row -1 and are listed by [Graph.Stalled].
//
// # Rendering
//
// [ToDOT] produces Graphviz DOT source with one cluster per collection and
// [RenderSVG] renders it in-process:
//
//	g := aliasgraph.Build(tokens)
//	dot := aliasgraph.ToDOT(g, aliasgraph.Options{Detailed: true})
//	svg, err := aliasgraph.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for SVG rendering.
package aliasgraph
