// Package pkg provides the core libraries of tokensync.
//
// # Overview
//
// tokensync converts DTCG-style design-token documents into a variable store
// and back. A store holds collections, each with one or more modes, and
// typed entries whose values are set per mode, either directly or as a
// reference to another entry. The pkg directory is organized into four areas:
//
//  1. Model - [ir] tokens and values, [color] spaces and conversion
//  2. Formats - [document] reading and writing token documents
//  3. Conversion - [materialize] and [aliasgraph] alias resolution
//  4. Infrastructure - [store] backends, [cache], [config], [pipeline], [server]
//
// # Architecture
//
// The data flow of an import and the export that reverses it:
//
//	token document (JSON)
//	         ↓
//	    [document] Read (tokens, aliases, diagnostics)
//	         ↓
//	    [ir] Graph
//	         ↓
//	    [materialize] Materialize (collections, modes, alias rounds)
//	         ↓
//	    [store] Store  →  [materialize] Snapshot  →  [document] Write
//
// # Quick Start
//
//	g, err := document.ReadFile("tokens.json", document.ReadOptions{}, diag.Discard)
//	if err != nil {
//	    return err
//	}
//
//	s := store.NewMemory(store.MemoryOptions{Profile: color.ProfileDisplayP3})
//	res, err := materialize.Materialize(ctx, g, s, materialize.Options{})
//	if err != nil {
//	    return err // res still describes what was created
//	}
//
//	out, err := materialize.Snapshot(ctx, s, materialize.Options{})
//	if err != nil {
//	    return err
//	}
//	return document.WriteFile("exported.json", out, document.WriteOptions{})
//
// [pipeline.Runner] wraps these steps with timing, observability hooks and
// a cached validation report; the CLI and [server] both go through it.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/materialize/...        # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [ir]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/ir
// [color]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/color
// [document]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/document
// [materialize]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/materialize
// [aliasgraph]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/aliasgraph
// [store]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/config
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/pipeline#Runner
// [server]: https://pkg.go.dev/github.com/matzehuels/tokensync/pkg/server
package pkg
