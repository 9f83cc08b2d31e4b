// Package ir provides the intermediate representation shared by every
// tokensync conversion.
//
// # Overview
//
// A [Graph] is a flat, ordered list of [Token] values. Each token has a
// [Token.Path] whose first segment names the owning collection, a [Type], and
// one [Value] per context. A context is a (collection, mode) pair encoded as
// a [ContextKey].
//
// Values are either scalars (number, string, boolean, [Color], or an opaque
// typography record) or aliases. An alias stores the referenced path as raw
// segments exactly as authored; it is never normalized before storage and
// never dereferenced by this package. Aliases are resolved by path lookup
// against the graph as a whole, so cycles are plain data and need no special
// handling here.
//
// # Canonical Form
//
// [Graph.Add] deduplicates tokens by their case-sensitive slash-joined path
// (first occurrence wins) and [Graph.Canonicalize] sorts tokens by their
// dot-joined path. Writers that emit a canonical graph produce byte-identical
// output for identical input.
//
// # Concurrency
//
// Graphs are built fresh for every conversion and are not safe for
// concurrent mutation.
package ir
