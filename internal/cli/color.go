package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/ir"
)

// colorCommand groups color utilities.
func (c *CLI) colorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "color",
		Short: "Inspect and convert colors",
	}

	cmd.AddCommand(c.colorConvertCommand())

	return cmd
}

// colorConvertOpts holds the flags of "color convert".
type colorConvertOpts struct {
	from      string
	to        string
	precision int
}

func (c *CLI) colorConvertCommand() *cobra.Command {
	var opts colorConvertOpts

	cmd := &cobra.Command{
		Use:   "convert <hex>",
		Short: "Convert a hex color between color spaces",
		Long: `Convert interprets a hex color in one color space and prints its
components in another, together with the sRGB hex fallback documents carry.`,
		Example: `  tokensync color convert '#ff0000' --to display-p3
  tokensync color convert 'f00c' --from display-p3 --to srgb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColorConvert(args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", string(color.SRGB), "space the hex value is in")
	cmd.Flags().StringVar(&opts.to, "to", string(color.DisplayP3), "space to convert to")
	cmd.Flags().IntVar(&opts.precision, "precision", 4, "decimal places of printed components")

	return cmd
}

func runColorConvert(hex string, opts colorConvertOpts) error {
	out, err := convertHex(hex, opts)
	if err != nil {
		return err
	}

	printSuccess("%s", color.String(out))
	printKeyValue("components", formatComponents(out.Components))
	if out.Alpha != nil {
		printKeyValue("alpha", fmt.Sprintf("%g", *out.Alpha))
	}
	printKeyValue("hex", out.Hex)
	for _, p := range []color.Profile{color.ProfileSRGB, color.ProfileDisplayP3} {
		if !color.IsRepresentable(out.ColorSpace, p) {
			printDetail("%s colors cannot be stored with the %s profile", out.ColorSpace, p)
		}
	}
	return nil
}

// convertHex parses hex in opts.from and converts it to opts.to, rounding
// components to opts.precision decimals.
func convertHex(hex string, opts colorConvertOpts) (ir.Color, error) {
	from, err := color.ParseSpace(opts.from)
	if err != nil {
		return ir.Color{}, err
	}
	to, err := color.ParseSpace(opts.to)
	if err != nil {
		return ir.Color{}, err
	}
	in, err := color.ParseHex(hex)
	if err != nil {
		return ir.Color{}, err
	}
	rgb, err := color.Convert(in.RGB(), from, to)
	if err != nil {
		return ir.Color{}, err
	}
	for i := range rgb {
		rgb[i] = round(rgb[i], opts.precision)
	}
	return color.FromNative(color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: in.A}, to)
}

func round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func formatComponents(comps []float64) string {
	parts := make([]string, len(comps))
	for i, v := range comps {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, " ")
}
