package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/diag"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/pipeline"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	lenientHex bool // accept colors that only carry a hex value
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Materialize a token document into the store",
		Long: `Import reads a token document, resolves its aliases and creates the
collections, modes and variables it describes in the configured store.

Tokens that already exist in the store are reused, so importing the same
document twice leaves the store unchanged.`,
		Example: `  tokensync import tokens.json
  tokensync import --store design.store.json --profile display-p3 tokens.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.lenientHex, "lenient-hex", false, "accept colors given only as hex")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, path string, opts importOpts) error {
	logger := loggerFromContext(ctx)

	data, err := readInput(path)
	if err != nil {
		return err
	}

	s, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	runner := c.newRunner()
	defer runner.Cache.Close()

	cfg := c.settings()
	readOpts := cfg.ReadOptions()
	readOpts.LenientHex = readOpts.LenientHex || opts.lenientHex

	var sink diag.Sink
	if logger.GetLevel() <= LogDebug {
		sink = diag.LogSink{Logger: logger}
	}

	prog := newProgress(logger)
	res, err := runner.Import(ctx, bytes.NewReader(data), s, pipeline.ImportOptions{
		Read: readOpts,
		Sink: sink,
	})
	if res != nil {
		printImport(path, res)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Imported %d tokens", res.Stats.Tokens))

	printNextStep("Export the store", appName+" export -o "+exportName(path))
	return nil
}

func printImport(path string, res *pipeline.ImportResult) {
	m := res.Materialize
	if len(m.Unresolved) > 0 {
		printError("Imported %s with %d unresolved aliases", path, len(m.Unresolved))
	} else {
		printSuccess("Imported %s", path)
	}
	printStats(
		stat{res.Stats.Tokens, "tokens"},
		stat{len(res.Collections), "collections"},
		stat{m.Created, "created"},
		stat{m.Reused, "reused"},
		stat{m.Rounds, "alias rounds"},
		stat{m.ModesAdded, "modes added"},
	)
	for _, name := range m.Unresolved {
		printDetail("unresolved: %s", name)
	}
	printDiagnostics(res.Diagnostics)
}

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output      string // output file, stdout when empty
	defaultMode string // mode name written without a mode marker
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as a token document",
		Example: `  tokensync export -o tokens.json
  tokensync export --store design.store.json > tokens.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.defaultMode, "default-mode", "", "mode name that needs no mode marker")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, opts exportOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	s, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	runner := c.newRunner()
	defer runner.Cache.Close()

	writeOpts := c.settings().WriteOptions()
	if opts.defaultMode != "" {
		writeOpts.DefaultMode = opts.defaultMode
	}

	var buf bytes.Buffer
	res, err := runner.Export(ctx, s, &buf, pipeline.ExportOptions{
		Write: writeOpts,
		Sink:  diag.LogSink{Logger: logger},
	})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := writeOutput(opts.output, buf.Bytes()); err != nil {
		return err
	}

	printSuccess("Exported %d tokens", res.Stats.Tokens)
	printStats(
		stat{len(res.Collections), "collections"},
		stat{len(res.Diagnostics), "diagnostics"},
	)
	printFile(opts.output)
	return nil
}

// =============================================================================
// File Helpers
// =============================================================================

// readInput reads a document from path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return data, nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// exportName suggests an output path for re-exporting an imported file.
func exportName(path string) string {
	if path == "-" {
		return "tokens.json"
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".exported.json"
}
