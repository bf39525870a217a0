package layout

import (
	"context"

	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Result is a computed layout together with statistics about it.
type Result struct {
	// Nodes are copies of the input nodes, in input order, with Position set.
	Nodes    []graph.Node `json:"nodes"`
	Strategy Strategy     `json:"strategy"`

	// Hierarchical only.
	Layers    int  `json:"layers,omitempty"`
	Crossings int  `json:"crossings,omitempty"`
	CatchAll  bool `json:"catch_all,omitempty"`

	// Force only: rounds actually simulated.
	Iterations int `json:"iterations,omitempty"`

	// Cycles is the number of back edges found in the graph.
	Cycles int `json:"cycles"`
	// Dropped is the number of edges ignored because an endpoint is missing.
	Dropped int `json:"dropped"`
}

// Apply computes positions for every node of g with the given strategy and
// returns new nodes in input order. g is not modified. An unknown strategy
// returns an INVALID_STRATEGY error; a cancelled force simulation returns
// ctx.Err().
func Apply(ctx context.Context, g graph.Graph, strategy Strategy, cfg Config) ([]graph.Node, error) {
	r, err := Run(ctx, g, strategy, cfg)
	if err != nil {
		return nil, err
	}
	return r.Nodes, nil
}

// Run is like [Apply] but also returns layout statistics.
func Run(ctx context.Context, g graph.Graph, strategy Strategy, cfg Config) (Result, error) {
	if err := ValidateStrategy(strategy); err != nil {
		return Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	cfg = cfg.WithDefaults()

	m := graph.NewModel(g)
	r := Result{
		Strategy: strategy,
		Cycles:   len(graph.BackEdges(m)),
		Dropped:  len(m.Dropped()),
	}

	var pos map[string]graph.Position
	switch strategy {
	case StrategyHierarchical:
		var l Layering
		pos, l = Hierarchical(m, cfg)
		r.Layers = len(l.Layers)
		r.CatchAll = l.CatchAll
		r.Crossings = CountCrossings(m, l.Layers)
	case StrategyForce:
		var err error
		pos, r.Iterations, err = simulate(ctx, m, cfg)
		if err != nil {
			return Result{}, err
		}
	case StrategyCircular:
		pos = Circular(m, cfg)
	case StrategyGrid:
		pos = Grid(m, cfg)
	}

	r.Nodes = place(g.Nodes, pos)
	return r, nil
}

// place returns copies of nodes moved to their computed positions. Repeated
// IDs share the position of the first occurrence.
func place(nodes []graph.Node, pos map[string]graph.Position) []graph.Node {
	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.WithPosition(pos[n.ID])
	}
	return out
}
