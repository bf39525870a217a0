package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/engine"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/layout"
	"github.com/matzehuels/pipegraph/pkg/lineage"
	"github.com/matzehuels/pipegraph/pkg/render"
	"github.com/matzehuels/pipegraph/pkg/render/dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output file path (or base path for multiple formats)
	formats   []string // output formats: "svg", "dot", "pdf", "png"
	highlight string   // seed node whose lineage is highlighted
	mode      string   // lineage mode for the highlight
	title     string   // graph title
	detailed  bool     // show node types and tags
	relayout  bool     // recompute positions even if every node is placed
	noCache   bool
	layout    layoutFlags
}

// renderCommand creates the render command for drawing graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a pipeline graph to SVG, DOT, PDF or PNG",
		Long: `Render a pipeline graph to SVG, DOT, PDF or PNG.

Nodes keep the positions stored in the file. If any node is unplaced, or
--relayout is given, positions are computed first with --strategy.

Nodes are filled with the color of their first group. With --highlight, the
lineage of that node (see --mode) is emphasized and every other node dimmed.

PDF and PNG output require rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats
			opts.relayout = opts.relayout || cmd.Flags().Changed("strategy")
			return c.runRender(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "highlight the lineage of this node")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(lineage.ModePath), "lineage mode for --highlight")
	cmd.Flags().StringVar(&opts.title, "title", "", "graph title")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node types and tags")
	cmd.Flags().BoolVar(&opts.relayout, "relayout", false, "recompute node positions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	opts.layout.register(cmd.Flags())

	return cmd
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string selects SVG.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{render.FormatSVG}, nil
	}
	var formats []string
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .dot, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to the file it is written to.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	g, err := readGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	logger.Debug("loaded graph", "nodes", len(g.Nodes), "edges", len(g.Edges))

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := opts.layout.config(cmd.Flags(), c.cfg.Layout)
	if opts.relayout || !placed(g) {
		g, err = c.placeGraph(ctx, runner, g, opts.layout.strategy, cfg)
		if err != nil {
			return err
		}
	}

	dotOpts, err := c.dotOptions(ctx, runner, g, opts, cfg)
	if err != nil {
		return err
	}

	if input == "-" {
		input = "graph.json"
	}
	paths := outputPaths(opts.output, input, opts.formats)
	printSuccess("Rendered %d nodes", len(g.Nodes))
	for _, format := range opts.formats {
		data, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, format, dotOpts)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		logger.Debug("rendered", "format", format, "bytes", len(data), "cached", cacheHit)
		if err := os.WriteFile(paths[format], data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", paths[format], err)
		}
		printFile(paths[format])
	}
	return nil
}

// placed reports whether every node has a position.
func placed(g graph.Graph) bool {
	for _, n := range g.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}

func (c *CLI) placeGraph(ctx context.Context, runner *engine.Runner, g graph.Graph, name string, cfg layout.Config) (graph.Graph, error) {
	strategy, err := layout.ParseStrategy(name)
	if err != nil {
		return graph.Graph{}, err
	}
	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Layout(ctx, cliSlot, g, strategy, cfg)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("compute layout: %w", err)
	}
	prog.done(fmt.Sprintf("Laid out %d nodes with %s", len(res.Nodes), strategy))
	return graph.Graph{Nodes: res.Nodes, Edges: g.Edges}, nil
}

// dotOptions builds the drawing options: group fill colors from the store and
// the highlighted lineage.
func (c *CLI) dotOptions(ctx context.Context, runner *engine.Runner, g graph.Graph, opts renderOpts, cfg layout.Config) (dot.Options, error) {
	cfg = cfg.WithDefaults()
	out := dot.Options{
		Title:      opts.title,
		Detailed:   opts.detailed,
		NodeWidth:  cfg.NodeWidth,
		NodeHeight: cfg.NodeHeight,
	}

	if reg, err := c.newRegistry(ctx); err != nil {
		loggerFromContext(ctx).Warn("group colors unavailable", "err", err)
	} else {
		out.GroupColors = make(map[string]string)
		for _, grp := range reg.List() {
			out.GroupColors[grp.ID] = grp.Color
		}
		_ = reg.Close()
	}

	if opts.highlight != "" {
		mode, err := lineage.ParseMode(opts.mode)
		if err != nil {
			return dot.Options{}, err
		}
		set, err := runner.Lineage(ctx, g, opts.highlight, mode)
		if err != nil {
			return dot.Options{}, err
		}
		out.Highlight = set
	}
	return out, nil
}
