// Package materialize writes an IR graph into a variable store and reads a
// store back into a graph.
//
// # Import
//
// [Materialize] treats the graph as the desired state of the store:
//
//  1. Bucket tokens into direct (at least one usable scalar), alias-only, and
//     unusable. Unusable tokens are reported and skipped.
//  2. Create or reuse every direct entry. Tokens whose host metadata names a
//     different collection than their path are reported as NAME_CONFLICT.
//  3. Create alias-only entries in rounds. A token becomes eligible once one
//     of its alias targets exists; each round only sees entries that existed
//     when it started. A round without progress stops the loop.
//  4. Write every context of every materialized entry: modes are created or
//     renamed as the store allows, references are resolved, colors are
//     re-validated and converted to the store's native space.
//  5. Remove every collection left without entries.
//
// Per-token and per-context problems go to the diagnostics sink. Store
// errors abort the run. A stalled alias loop returns the partial [Result]
// together with an ALIAS_STALLED error after steps 4 and 5 have run.
//
// # Alias targets
//
// A raw reference like {Brand.red} is tried, in order, as a literal
// collection + name, as a name relative to the referencing token's
// collection, and with its first segment matched by slug against known
// collections. A candidate naming the referencing token itself is never used.
//
// # Export
//
// [Snapshot] reads every collection and entry into a canonical graph with one
// context per mode. References become aliases to the target's path.
package materialize
