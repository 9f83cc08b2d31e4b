// Package pipeline runs complete conversions for the CLI and HTTP server.
//
// # Stages
//
// Every conversion is a short chain of stages from the engine packages:
//
//  1. Import: read a document, then materialize it into a store
//  2. Export: snapshot a store, then write a document
//  3. Validate: read a document and analyze its alias graph
//  4. Graph: read a document and render its alias graph
//
// Recoverable problems are collected into the result as diagnostics; only
// fatal conditions (malformed input, stalled aliases, store failures) are
// returned as errors.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, logger)
//	res, err := runner.Import(ctx, f, s, pipeline.ImportOptions{})
//	if err != nil {
//	    return err
//	}
//	logger.Info("imported", "created", res.Materialize.Created)
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/materialize"
)

// =============================================================================
// Graph Formats
// =============================================================================

// Formats accepted by [Runner.Graph].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// DefaultGraphFormat is used when GraphOptions.Format is empty.
const DefaultGraphFormat = FormatSVG

// ValidFormats is the set of supported graph formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ValidateFormat checks that a graph format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// ImportOptions configures [Runner.Import].
type ImportOptions struct {
	Read document.ReadOptions
	// Sink additionally receives every diagnostic as it is reported.
	Sink diag.Sink
}

// ExportOptions configures [Runner.Export].
type ExportOptions struct {
	Write document.WriteOptions
	Sink  diag.Sink
}

// GraphOptions configures [Runner.Graph].
type GraphOptions struct {
	Read     document.ReadOptions
	Format   string
	Detailed bool
}

// =============================================================================
// Results
// =============================================================================

// Stats holds stage timings and sizes.
type Stats struct {
	Tokens          int           `json:"tokens"`
	ReadTime        time.Duration `json:"read_time"`
	MaterializeTime time.Duration `json:"materialize_time,omitempty"`
	SnapshotTime    time.Duration `json:"snapshot_time,omitempty"`
	WriteTime       time.Duration `json:"write_time,omitempty"`
}

// ImportResult is the outcome of an import.
type ImportResult struct {
	Collections []string            `json:"collections"`
	Materialize *materialize.Result `json:"result"`
	Diagnostics []diag.Diagnostic   `json:"diagnostics,omitempty"`
	Stats       Stats               `json:"stats"`
}

// ExportResult is the outcome of an export.
type ExportResult struct {
	Collections []string          `json:"collections"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Stats       Stats             `json:"stats"`
}

// Report is the outcome of validating a document.
type Report struct {
	Valid       bool              `json:"valid"`
	Tokens      int               `json:"tokens"`
	Collections []string          `json:"collections"`
	Rounds      int               `json:"rounds"`
	Stalled     []string          `json:"stalled,omitempty"`
	Cycles      [][]string        `json:"cycles,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	// Cached reports whether the report came from the runner's cache.
	Cached bool `json:"-"`
}

// Summary renders a one-line description of the report.
func (r *Report) Summary() string {
	state := "valid"
	if !r.Valid {
		state = "invalid"
	}
	return fmt.Sprintf("%s: %d tokens in %d collections, %d alias rounds, %d diagnostics",
		state, r.Tokens, len(r.Collections), r.Rounds, len(r.Diagnostics))
}

// valid reports whether diags contain only informational kinds.
func valid(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if !errors.IsInformational(d.Kind) {
			return false
		}
	}
	return true
}
