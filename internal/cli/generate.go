package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/pkg/export"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output  string  // source output path; stdout when empty
	render  bool    // render the generated source
	formats string  // export formats when rendering
	scale   float64 // PNG scale factor
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{scale: defaultScale}

	cmd := &cobra.Command{
		Use:   "generate <prompt...>",
		Short: "Generate diagram source from a description",
		Long: `Generate asks the completion service for a diagram matching the description.

The source is printed to stdout unless --output is given. With --render the
source is also rendered and exported next to the output (diagram.svg by default).`,
		Example: `  diagrammer generate "user login flow with password reset"
  diagrammer generate -o login.mmd --render "user login flow"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the source to this file")
	cmd.Flags().BoolVarP(&opts.render, "render", "r", false, "render the generated diagram")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "export format(s) when rendering: svg (default), png, pdf")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, stdout io.Writer, prompt string, opts generateOpts) error {
	formats, err := export.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Generating with %s...", a.client.Model()))
	spinner.Start()
	src, err := a.session.GenerateSource(ctx, prompt)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Fprintln(stdout, src)
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.output), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, []byte(src+"\n"), 0644); err != nil {
			return fmt.Errorf("write source: %w", err)
		}
		printSuccess("Diagram Generated %s", StyleDim.Render("("+prog.elapsed().String()+")"))
		printFile(opts.output)
	}

	if !opts.render {
		return nil
	}

	base := export.FileName
	if opts.output != "" {
		base = opts.output
	}
	return c.renderAndExport(ctx, a, src, base, formats, opts.scale)
}

// renderAndExport renders src through the session and writes each format.
func (c *CLI) renderAndExport(ctx context.Context, a *app, src, base string, formats []string, scale float64) error {
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Rendering with %s...", a.loader.Name()))
	spinner.Start()
	res := a.session.SetSource(ctx, src)
	spinner.Stop()

	if err := printRenderResult(res, prog.elapsed()); err != nil || !res.OK() {
		return err
	}

	paths, err := export.WriteFormats(base, res, formats, scale)
	for _, p := range paths {
		printFile(p)
	}
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		printSuccess("Download Complete")
	}
	return nil
}
