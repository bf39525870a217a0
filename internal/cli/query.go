package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/lineage"
	"github.com/matzehuels/pipegraph/pkg/slice"
)

// =============================================================================
// lineage
// =============================================================================

func (c *CLI) lineageCommand() *cobra.Command {
	var (
		node    string
		mode    string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "lineage [graph.json]",
		Short: "Show the lineage of a node",
		Long: `Show the lineage of a node.

Modes:
  impact      the node and everything downstream of it
  dependency  the node and everything upstream of it
  path        the node and every node on a path through it
  critical    the node and the critical steps around it

With --explain, the critical steps around the node are listed with the
reasons they were flagged (fan-in, fan-out, ml-stage, combiner, bottleneck).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lineage.ParseMode(mode)
			if err != nil {
				return err
			}
			return c.runLineage(cmd.Context(), args[0], node, m, explain)
		},
	}

	cmd.Flags().StringVarP(&node, "node", "n", "", "seed node ID")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(lineage.ModeImpact), "lineage mode: impact, dependency, path, critical")
	cmd.Flags().BoolVar(&explain, "explain", false, "list critical steps with reasons")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

func (c *CLI) runLineage(ctx context.Context, input, node string, mode lineage.Mode, explain bool) error {
	g, err := readGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	set, err := runner.Lineage(ctx, g, node, mode)
	if err != nil {
		return err
	}
	printSuccess("%s lineage of %s: %d nodes", mode, StyleHighlight.Render(node), set.Len())
	printNodeIDs(set.Sorted())

	if explain {
		findings := runner.Explain(ctx, g, node)
		printNewline()
		if len(findings) == 0 {
			printInfo("No critical steps around %s", node)
			return nil
		}
		printInfo("Critical steps")
		printFindings(findings)
	}
	return nil
}

// =============================================================================
// related
// =============================================================================

func (c *CLI) relatedCommand() *cobra.Command {
	var (
		node string
		dir  lineage.Direction
		deep int
	)

	cmd := &cobra.Command{
		Use:   "related [graph.json]",
		Short: "List nodes upstream and/or downstream of a node",
		Long: `List nodes upstream and/or downstream of a node.

Without --upstream or --downstream, both directions are followed. The node
itself is only listed when it lies on a cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dir.Upstream && !dir.Downstream {
				dir = lineage.Both
			}
			if deep < 0 {
				return fmt.Errorf("depth must not be negative (got %d)", deep)
			}
			return c.runRelated(cmd.Context(), args[0], node, dir, deep)
		},
	}

	cmd.Flags().StringVarP(&node, "node", "n", "", "seed node ID")
	cmd.Flags().BoolVar(&dir.Upstream, "upstream", false, "follow edges towards sources")
	cmd.Flags().BoolVar(&dir.Downstream, "downstream", false, "follow edges towards sinks")
	cmd.Flags().IntVar(&deep, "depth", 0, "maximum number of edge steps (0 = unbounded)")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

func (c *CLI) runRelated(ctx context.Context, input, node string, dir lineage.Direction, depth int) error {
	g, err := readGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	set := runner.Related(ctx, g, node, dir, depth)
	printSuccess("%d nodes related to %s", set.Len(), StyleHighlight.Render(node))
	printNodeIDs(set.Sorted())
	return nil
}

// =============================================================================
// slice
// =============================================================================

func (c *CLI) sliceCommand() *cobra.Command {
	var (
		opts   slice.Options
		mode   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "slice [graph.json]",
		Short: "Extract a sub-graph and print its runner command",
		Long: `Extract a sub-graph and print its runner command.

Tag, type and group filters narrow the graph first; a selection then expands
within what is left:
  from     the selection and everything downstream
  to       the selection and everything upstream
  around   both directions
  between  paths from the first selected node to the others

Groups may be given by ID or by name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Mode = slice.Mode(mode)
			if err := opts.Validate(); err != nil {
				return err
			}
			return c.runSlice(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "keep nodes carrying any of these tags")
	cmd.Flags().StringSliceVar(&opts.Types, "types", nil, "keep nodes of these types")
	cmd.Flags().StringSliceVar(&opts.Groups, "groups", nil, "keep members of these groups")
	cmd.Flags().StringSliceVar(&opts.Selection, "select", nil, "selected node IDs")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(slice.DefaultMode), "selection mode: from, to, around, between")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "maximum expansion depth (0 = unbounded)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the sub-graph to this file")

	return cmd
}

func (c *CLI) runSlice(ctx context.Context, input string, opts slice.Options, output string) error {
	g, err := readGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	if len(opts.Groups) > 0 {
		reg, err := c.newRegistry(ctx)
		if err != nil {
			return fmt.Errorf("open groups: %w", err)
		}
		defer reg.Close()
		opts.Groups = resolveGroupRefs(reg.List(), opts.Groups)
	}

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Slice(ctx, g, opts)
	if err != nil {
		return err
	}

	printSuccess("Slice: %d nodes, %d edges", len(res.Nodes), len(res.Edges))
	for _, n := range res.Nodes {
		printDetail("%s (%s)", n.ID, n.Type)
	}
	printNewline()
	printNextStep("Run", res.Command)

	if output != "" {
		if err := graph.WriteGraphFile(res.Graph(), output); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printFile(output)
	}
	return nil
}

// =============================================================================
// inspect
// =============================================================================

func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [graph.json]",
		Short: "Summarize a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			printSummary(summarize(g))
			return nil
		},
	}
}

// summary describes the shape of a graph.
type summary struct {
	Nodes      int
	Edges      int
	Sources    []string
	Sinks      []string
	BackEdges  int
	Dropped    int
	Duplicates []string
	Types      map[graph.NodeType]int
	Unplaced   int
}

func summarize(g graph.Graph) summary {
	m := graph.NewModel(g)
	s := summary{
		Nodes:      m.NodeCount(),
		Edges:      m.EdgeCount(),
		Sources:    m.Sources(),
		Sinks:      m.Sinks(),
		BackEdges:  len(graph.BackEdges(m)),
		Dropped:    len(m.Dropped()),
		Duplicates: m.Duplicates(),
		Types:      make(map[graph.NodeType]int),
	}
	for _, n := range m.Nodes() {
		s.Types[n.Type]++
		if n.Position == nil {
			s.Unplaced++
		}
	}
	return s
}

func printSummary(s summary) {
	printKeyValue("Nodes", fmt.Sprint(s.Nodes))
	printKeyValue("Edges", fmt.Sprint(s.Edges))
	printKeyValue("Sources", strings.Join(s.Sources, ", "))
	printKeyValue("Sinks", strings.Join(s.Sinks, ", "))
	printKeyValue("Unplaced", fmt.Sprint(s.Unplaced))
	if s.BackEdges > 0 {
		printWarning("%d edge(s) close a cycle", s.BackEdges)
	}
	if s.Dropped > 0 {
		printWarning("%d edge(s) reference unknown nodes", s.Dropped)
	}
	if len(s.Duplicates) > 0 {
		printWarning("duplicate node IDs: %s", strings.Join(s.Duplicates, ", "))
	}

	printNewline()
	types := slices.SortedFunc(maps.Keys(s.Types), func(a, b graph.NodeType) int {
		if ca, cb := a.Category(), b.Category(); ca != cb {
			return int(ca) - int(cb)
		}
		return strings.Compare(string(a), string(b))
	})
	for _, t := range types {
		printDetail("%-22s %d", t, s.Types[t])
	}
}
