package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindlayout/pkg/layout"
	"github.com/matzehuels/mindlayout/pkg/pipeline"
)

// renderOpts holds the render-only command-line flags.
type renderOpts struct {
	output     string // output file (one format) or base path (several)
	layoutFile string // precomputed layout.json; empty computes one
	formats    []string
	showEdges  bool
	detailed   bool
	scale      float64
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		formatsStr string
		ropts      = renderOpts{scale: pipeline.DefaultScale}
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph to SVG, PNG, PDF or DOT",
		Long: `Render a graph with pinned node positions.

Positions come from a layout file written by 'mindlayout layout' (-l), or are
computed on the fly with the layout flags. Parent links are drawn solid and
cross links dashed (--edges).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ropts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(ropts.formats); err != nil {
				return err
			}
			opts, err := flags.options(cmd, c.layoutDefaults())
			if err != nil {
				return err
			}
			opts.Formats = ropts.formats
			opts.ShowEdges = ropts.showEdges
			opts.Detailed = ropts.detailed
			opts.Scale = ropts.scale
			opts.Logger = c.Logger
			return c.runRender(cmd.Context(), args[0], opts, ropts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&ropts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ropts.layoutFile, "layout", "l", "", "layout.json to render instead of computing one")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&ropts.showEdges, "edges", false, "draw cross links")
	cmd.Flags().BoolVar(&ropts.detailed, "detailed", false, "add tags to node labels")
	cmd.Flags().Float64Var(&ropts.scale, "scale", ropts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&ropts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, ropts renderOpts) error {
	runner, err := c.newRunner(ctx, ropts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, err := runner.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		cached    bool
	)
	if ropts.layoutFile != "" {
		var res *layout.Result
		res, err = layout.ReadResultFile(ropts.layoutFile)
		if err == nil {
			artifacts, cached, err = runner.RenderWithCacheInfo(ctx, g, res, opts)
		}
	} else {
		var result *pipeline.Result
		result, err = runner.Execute(ctx, g, opts)
		if err == nil {
			artifacts = result.Artifacts
			cached = result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("Rendered graph", "formats", strings.Join(opts.Formats, ","), "cached", cached)

	paths := outputPaths(input, ropts.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(g.NodeCount(), g.EdgeCount(), cached)
	return nil
}

// outputPaths maps each format to a file path. A single format writes to
// output as given; several formats treat output as a base path.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = input
	}
	for _, f := range formats {
		paths[f] = defaultOutput(base, "."+f)
	}
	return paths
}
