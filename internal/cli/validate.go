package cli

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/pipeline"
)

// errInvalidDocument makes validate exit non-zero.
var errInvalidDocument = errors.New(errors.ErrCodeInvalidInput, "document is invalid")

type validateOpts struct {
	jsonOutput bool
	lenientHex bool
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var opts validateOpts

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a token document without touching the store",
		Long: `Validate reads a token document and resolves its aliases the way import
would, without a store. It reports malformed tokens, aliases that never
resolve and alias cycles, and exits non-zero when the document would not
import cleanly.

Reports are cached by document content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.lenientHex, "lenient-hex", false, "accept colors given only as hex")

	return cmd
}

func (c *CLI) runValidate(cmd *cobra.Command, path string, opts validateOpts) error {
	ctx := cmd.Context()

	data, err := readInput(path)
	if err != nil {
		return err
	}

	runner := c.newRunner()
	defer runner.Cache.Close()

	readOpts := c.settings().ReadOptions()
	readOpts.LenientHex = readOpts.LenientHex || opts.lenientHex

	rep, err := runner.Validate(ctx, bytes.NewReader(data), readOpts)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printReport(path, rep)
	}

	if !rep.Valid {
		return errInvalidDocument
	}
	return nil
}

func printReport(path string, rep *pipeline.Report) {
	if rep.Valid {
		printSuccess("%s is valid %s", path, cacheStatus(rep.Cached))
	} else {
		printError("%s is invalid %s", path, cacheStatus(rep.Cached))
	}
	printStats(
		stat{rep.Tokens, "tokens"},
		stat{len(rep.Collections), "collections"},
		stat{rep.Rounds, "alias rounds"},
		stat{len(rep.Diagnostics), "diagnostics"},
	)
	for _, cycle := range rep.Cycles {
		printWarning("cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0])
	}
	for _, name := range rep.Stalled {
		printDetail("unresolved: %s", name)
	}
	printDiagnostics(rep.Diagnostics)
}
