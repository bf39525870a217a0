package layout

import (
	"math"

	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Grid places nodes row by row in a grid of ceil(sqrt(n)) columns, in input
// order.
func Grid(m *graph.Model, cfg Config) map[string]graph.Position {
	cfg = cfg.WithDefaults()
	nodes := m.Nodes()
	pos := make(map[string]graph.Position, len(nodes))
	if len(nodes) == 0 {
		return pos
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	for i, n := range nodes {
		row, col := i/cols, i%cols
		pos[n.ID] = graph.Position{
			X: cfg.Padding + float64(col)*(cfg.NodeWidth+cfg.HorizontalSpacing),
			Y: cfg.Padding + float64(row)*(cfg.NodeHeight+cfg.VerticalSpacing),
		}
	}
	return pos
}
