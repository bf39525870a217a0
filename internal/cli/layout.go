package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/layout"
)

// layoutFlags holds layout parameters that override the [layout] section of
// the config file.
type layoutFlags struct {
	strategy string
	cfg      layout.Config
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.strategy, "strategy", "s", string(layout.StrategyHierarchical), "layout strategy: hierarchical, force, circular, grid")
	fs.Float64Var(&f.cfg.Width, "width", 0, "canvas width")
	fs.Float64Var(&f.cfg.Height, "height", 0, "canvas height")
	fs.Float64Var(&f.cfg.NodeWidth, "node-width", 0, "node width")
	fs.Float64Var(&f.cfg.NodeHeight, "node-height", 0, "node height")
	fs.Float64Var(&f.cfg.HorizontalSpacing, "h-spacing", 0, "horizontal spacing between nodes")
	fs.Float64Var(&f.cfg.VerticalSpacing, "v-spacing", 0, "vertical spacing between layers")
	fs.IntVar(&f.cfg.Iterations, "iterations", 0, "force simulation iterations")
	fs.Uint64Var(&f.cfg.Seed, "seed", 0, "force simulation seed")
}

// config merges the flags that were set over base.
func (f *layoutFlags) config(fs *pflag.FlagSet, base layout.Config) layout.Config {
	cfg := base
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("width", func() { cfg.Width = f.cfg.Width })
	set("height", func() { cfg.Height = f.cfg.Height })
	set("node-width", func() { cfg.NodeWidth = f.cfg.NodeWidth })
	set("node-height", func() { cfg.NodeHeight = f.cfg.NodeHeight })
	set("h-spacing", func() { cfg.HorizontalSpacing = f.cfg.HorizontalSpacing })
	set("v-spacing", func() { cfg.VerticalSpacing = f.cfg.VerticalSpacing })
	set("iterations", func() { cfg.Iterations = f.cfg.Iterations })
	set("seed", func() { cfg.Seed = f.cfg.Seed })
	return cfg
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a pipeline graph",
		Long: `Compute node positions for a pipeline graph.

The layout command reads a graph file and writes the same graph with every
node placed. Hierarchical layout assigns layers from the longest path and
orders nodes within a layer by step category; force, circular and grid are
also available. Layout parameters default to the [layout] section of the
config file.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := layout.ParseStrategy(flags.strategy)
			if err != nil {
				return err
			}
			cfg := flags.config(cmd.Flags(), c.cfg.Layout)
			return c.runLayout(cmd.Context(), args[0], strategy, cfg, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd.Flags())

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, strategy layout.Strategy, cfg layout.Config, output string, noCache bool) error {
	g, err := readGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", strategy))
	spinner.Start()

	res, cacheHit, err := runner.LayoutWithCacheInfo(ctx, cliSlot, g, strategy, cfg)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = layoutPath(input)
	}
	placed := graph.Graph{Nodes: res.Nodes, Edges: g.Edges}
	if err := graph.WriteGraphFile(placed, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(res.Nodes), len(g.Edges), cacheHit)
	if res.Cycles > 0 {
		printWarning("%d cycle(s) in graph", res.Cycles)
	}
	if res.Dropped > 0 {
		printWarning("%d edge(s) reference unknown nodes and were ignored", res.Dropped)
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// layoutPath derives the default layout output path from the input path.
func layoutPath(input string) string {
	if input == "-" {
		return "graph.layout.json"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}
