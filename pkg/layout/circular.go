package layout

import (
	"math"

	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Circular places node i of n at angle 2πi/n on a circle of cfg.Radius around
// (cfg.CenterX, cfg.CenterY), starting at the rightmost point and going
// clockwise in screen coordinates. Nodes keep input order.
func Circular(m *graph.Model, cfg Config) map[string]graph.Position {
	cfg = cfg.WithDefaults()
	nodes := m.Nodes()
	pos := make(map[string]graph.Position, len(nodes))
	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(nodes))
		pos[n.ID] = graph.Position{
			X: cfg.CenterX + cfg.Radius*math.Cos(angle),
			Y: cfg.CenterY + cfg.Radius*math.Sin(angle),
		}
	}
	return pos
}
