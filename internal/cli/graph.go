package cli

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/pipeline"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file, stdout when empty
	format   string // "svg" or "dot"; inferred from output when empty
	detailed bool   // label nodes with type and resolution round
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Render the alias graph of a token document",
		Long: `Graph draws every token of a document as a node and every alias as an
edge, grouped by collection. Aliases that never resolve are drawn in red,
targets missing from the document as dashed nodes.`,
		Example: `  tokensync graph tokens.json -o aliases.svg
  tokensync graph tokens.json --format dot --detailed | dot -Tpng > aliases.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg or dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show token types and resolution rounds")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, opts graphOpts) error {
	ctx := cmd.Context()

	format := opts.format
	if format == "" {
		format = formatFromPath(opts.output)
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return err
	}

	data, err := readInput(path)
	if err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	out, err := c.newRunner().Graph(ctx, bytes.NewReader(data), pipeline.GraphOptions{
		Read:     c.settings().ReadOptions(),
		Format:   format,
		Detailed: opts.detailed,
	})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	if err := writeOutput(opts.output, out); err != nil {
		return err
	}
	prog.done("Rendered alias graph")
	printSuccess("Generated %s graph", format)
	printFile(opts.output)
	return nil
}

// formatFromPath infers the graph format from an output file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return pipeline.FormatDOT
	}
	return pipeline.DefaultGraphFormat
}
