package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/pkg/export"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file path (or base path for multiple formats)
	formats string  // output formats: "svg", "png", "pdf"
	scale   float64 // PNG scale factor
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: export.FileName, scale: defaultScale}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render diagram source to SVG, PNG or PDF",
		Long: `Render reads diagram source from a file, or stdin when the file is "-" or
omitted, and writes the rendered diagram. PNG and PDF require rsvg-convert.`,
		Example: `  diagrammer render flow.dot
  cat flow.dot | diagrammer render -o out/flow.svg -f svg,png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			src, err := readSource(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), src, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, src string, opts renderOpts) error {
	formats, err := export.ParseFormats(opts.formats)
	if err != nil {
		return err
	}
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("no diagram source to render")
	}

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return c.renderAndExport(ctx, a, src, opts.output, formats, opts.scale)
}

// readSource reads the diagram source from path, or from stdin for "-".
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}
