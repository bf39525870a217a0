package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/engine"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/lineage"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listLitStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// explore command
// =============================================================================

func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Browse a graph and its lineage interactively",
		Long: `Browse a graph and its lineage interactively.

Pick a node with enter to highlight its lineage. m cycles the lineage mode,
e shows why steps around the node are critical, c clears the selection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := readGraph(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			colors := map[string]string{}
			if reg, err := c.newRegistry(ctx); err == nil {
				for _, grp := range reg.List() {
					colors[grp.ID] = grp.Color
				}
				_ = reg.Close()
			}

			m := newExplorer(ctx, runner, g, colors)
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// =============================================================================
// Explorer model
// =============================================================================

// explorer is the bubbletea model of the explore command: a node list, the
// selected seed, the lineage mode and the highlighted set.
type explorer struct {
	ctx    context.Context
	runner *engine.Runner
	g      graph.Graph
	nodes  []graph.Node
	colors map[string]string

	cursor int
	offset int
	height int

	seed      string
	mode      lineage.Mode
	highlight graph.Set
	explain   bool
	findings  []lineage.Finding
	err       error
}

func newExplorer(ctx context.Context, runner *engine.Runner, g graph.Graph, colors map[string]string) explorer {
	return explorer{
		ctx:       ctx,
		runner:    runner,
		g:         g,
		nodes:     graph.NewModel(g).Nodes(),
		colors:    colors,
		height:    15,
		mode:      lineage.ModeImpact,
		highlight: graph.NewSet(),
	}
}

func (m explorer) Init() tea.Cmd {
	return nil
}

func (m explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if len(m.nodes) > 0 {
				m.seed = m.nodes[m.cursor].ID
				m = m.refresh()
			}
		case "m":
			m.mode = nextMode(m.mode)
			m = m.refresh()
		case "e":
			m.explain = !m.explain
			m = m.refresh()
		case "c":
			m.seed = ""
			m = m.refresh()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

// refresh recomputes the highlighted set and findings for the current seed.
func (m explorer) refresh() explorer {
	m.highlight, m.findings, m.err = graph.NewSet(), nil, nil
	if m.seed == "" {
		return m
	}
	set, err := m.runner.Lineage(m.ctx, m.g, m.seed, m.mode)
	if err != nil {
		m.err = err
		return m
	}
	m.highlight = set
	if m.explain {
		m.findings = m.runner.Explain(m.ctx, m.g, m.seed)
	}
	return m
}

func nextMode(mode lineage.Mode) lineage.Mode {
	for i, md := range lineage.Modes {
		if md == mode {
			return lineage.Modes[(i+1)%len(lineage.Modes)]
		}
	}
	return lineage.Modes[0]
}

func (m explorer) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Pipeline"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  m mode  e explain  c clear  q quit"))
	b.WriteString("\n\n")

	return b.String() + lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), " ", m.panelView())
}

func (m explorer) listView() string {
	var b strings.Builder
	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := " "
		if m.highlight.Has(n.ID) {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %-24s %s", cursor, mark, truncate(n.DisplayLabel(), 24), listDimStyle.Render(string(n.Type)))

		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case m.highlight.Has(n.ID):
			b.WriteString(listLitStyle.Render(line))
		case m.highlight.Len() > 0:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		if grp := m.groupColor(n); grp != "" {
			b.WriteString(" " + lipgloss.NewStyle().Foreground(lipgloss.Color(grp)).Render("■"))
		}
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.nodes)), len(m.nodes))))
	return b.String()
}

func (m explorer) panelView() string {
	var b strings.Builder
	if m.seed == "" {
		b.WriteString(listDimStyle.Render("no node selected"))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", listDimStyle.Render("seed"), StyleHighlight.Render(m.seed)))
		b.WriteString(fmt.Sprintf("%s %s\n", listDimStyle.Render("mode"), StyleValue.Render(string(m.mode))))
		b.WriteString(fmt.Sprintf("%s %d", listDimStyle.Render("nodes"), m.highlight.Len()))
	}
	if m.err != nil {
		b.WriteString("\n" + styleIconError.Render(m.err.Error()))
	}
	if m.explain && len(m.findings) > 0 {
		b.WriteString("\n\n" + styleHeader.Render("critical"))
		for _, f := range m.findings {
			reasons := make([]string, len(f.Reasons))
			for i, r := range f.Reasons {
				reasons[i] = string(r)
			}
			b.WriteString(fmt.Sprintf("\n%s %s", StyleHighlight.Render(f.ID), listDimStyle.Render(strings.Join(reasons, ", "))))
		}
	}
	return panelStyle.Render(b.String())
}

// groupColor returns the swatch color of the node's first known group.
func (m explorer) groupColor(n graph.Node) string {
	for _, id := range n.Groups() {
		if c, ok := m.colors[id]; ok {
			return swatch(c)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
