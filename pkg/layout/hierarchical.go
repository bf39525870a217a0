package layout

import (
	"slices"

	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Layering is the result of [AssignLayers].
type Layering struct {
	// Depth maps each node ID to its layer index.
	Depth map[string]int
	// Layers holds node IDs per depth, already in left-to-right order.
	Layers [][]string
	// CatchAll is true when the last layer collects nodes the topological
	// walk could not reach because they sit on or behind a cycle.
	CatchAll bool
}

// AssignLayers computes the depth of every node as the length of its longest
// path from a source, using Kahn's algorithm:
//  1. Seed the queue with every node of in-degree 0 at depth 0, in input order
//  2. For each dequeued node, set depth[child] = max(depth[child], depth[node]+1)
//  3. Decrement the child's in-degree and enqueue it when it reaches 0
//
// This keeps every node strictly below all of its parents.
//
// # Cycles
//
// If no node has in-degree 0 the whole graph is returned as a single layer at
// depth 0. Otherwise nodes never dequeued (cycle members and everything
// downstream of them) are appended to one final catch-all layer. Every node is
// placed exactly once and the function always terminates.
//
// # Ordering
//
// Within a layer nodes are sorted by type category (architecture, inputs,
// processing, combining, training, prediction, marts, outputs, BI, unknown),
// then by descending total degree, then by input order.
//
// Time complexity is O(V log V + E).
func AssignLayers(m *graph.Model) Layering {
	nodes := m.Nodes()
	l := Layering{Depth: make(map[string]int, len(nodes))}
	if len(nodes) == 0 {
		return l
	}

	inDegree := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		degree := m.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	if len(queue) == 0 {
		layer := make([]string, 0, len(nodes))
		for _, n := range nodes {
			l.Depth[n.ID] = 0
			layer = append(layer, n.ID)
		}
		l.Layers = [][]string{orderLayer(m, layer)}
		return l
	}

	depth := make(map[string]int, len(nodes))
	visited := make(map[string]bool, len(nodes))
	maxDepth := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		visited[curr] = true
		maxDepth = max(maxDepth, depth[curr])

		for _, child := range m.Children(curr) {
			if d := depth[curr] + 1; d > depth[child] {
				depth[child] = d
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	l.Layers = make([][]string, maxDepth+1)
	var residual []string
	for _, n := range nodes {
		if !visited[n.ID] {
			residual = append(residual, n.ID)
			continue
		}
		d := depth[n.ID]
		l.Depth[n.ID] = d
		l.Layers[d] = append(l.Layers[d], n.ID)
	}
	if len(residual) > 0 {
		for _, id := range residual {
			l.Depth[id] = maxDepth + 1
		}
		l.Layers = append(l.Layers, residual)
		l.CatchAll = true
	}

	for i, layer := range l.Layers {
		l.Layers[i] = orderLayer(m, layer)
	}
	return l
}

func orderLayer(m *graph.Model, layer []string) []string {
	out := slices.Clone(layer)
	slices.SortStableFunc(out, func(a, b string) int {
		na, _ := m.Node(a)
		nb, _ := m.Node(b)
		if ca, cb := na.Type.Category(), nb.Type.Category(); ca != cb {
			return int(ca) - int(cb)
		}
		if da, db := m.Degree(a), m.Degree(b); da != db {
			return db - da
		}
		return m.Index(a) - m.Index(b)
	})
	return out
}

// Hierarchical places the layers from [AssignLayers] top to bottom, each
// layer centered horizontally on the canvas:
//
//	layerWidth   = count*(NodeWidth+HorizontalSpacing) - HorizontalSpacing
//	canvasWidth  = max(Width, widestLayer + 2*Padding)
//	x_i          = max(Padding, (canvasWidth-layerWidth)/2 + i*(NodeWidth+HorizontalSpacing))
//	y            = Padding + depth*(NodeHeight+VerticalSpacing)
func Hierarchical(m *graph.Model, cfg Config) (map[string]graph.Position, Layering) {
	cfg = cfg.WithDefaults()
	l := AssignLayers(m)

	step := cfg.NodeWidth + cfg.HorizontalSpacing
	widest := 0.0
	for _, layer := range l.Layers {
		widest = max(widest, layerWidth(len(layer), step, cfg.HorizontalSpacing))
	}
	canvas := max(cfg.Width, widest+2*cfg.Padding)

	pos := make(map[string]graph.Position, m.NodeCount())
	for depth, layer := range l.Layers {
		offset := (canvas - layerWidth(len(layer), step, cfg.HorizontalSpacing)) / 2
		y := cfg.Padding + float64(depth)*(cfg.NodeHeight+cfg.VerticalSpacing)
		for i, id := range layer {
			pos[id] = graph.Position{
				X: max(cfg.Padding, offset+float64(i)*step),
				Y: y,
			}
		}
	}
	return pos, l
}

func layerWidth(count int, step, spacing float64) float64 {
	if count == 0 {
		return 0
	}
	return float64(count)*step - spacing
}
