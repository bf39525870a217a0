package layout

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
)

func build(nodes []graph.Node, edges ...[2]string) graph.Graph {
	g := graph.Graph{Nodes: nodes}
	for i, e := range edges {
		g.Edges = append(g.Edges, graph.Edge{ID: fmt.Sprintf("e%d", i), Source: e[0], Target: e[1]})
	}
	return g
}

func typed(pairs ...string) []graph.Node {
	var nodes []graph.Node
	for i := 0; i < len(pairs); i += 2 {
		nodes = append(nodes, graph.Node{ID: pairs[i], Type: graph.NodeType(pairs[i+1])})
	}
	return nodes
}

func ids(ids ...string) []graph.Node {
	var nodes []graph.Node
	for _, id := range ids {
		nodes = append(nodes, graph.Node{ID: id})
	}
	return nodes
}

func linear() graph.Graph {
	return build(
		typed("A", "csv_input", "B", "transform", "C", "model_train", "D", "csv_output"),
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"},
	)
}

func TestAssignLayers_Linear(t *testing.T) {
	l := AssignLayers(graph.NewModel(linear()))

	want := map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}
	if diff := cmp.Diff(want, l.Depth); diff != "" {
		t.Errorf("Depth mismatch (-want +got):\n%s", diff)
	}
	if l.CatchAll {
		t.Error("acyclic graph should not need a catch-all layer")
	}
}

func TestAssignLayers_LongestPath(t *testing.T) {
	// A→D directly and through B→C: D must sit below C.
	g := build(ids("A", "B", "C", "D"),
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"}, [2]string{"A", "D"})
	l := AssignLayers(graph.NewModel(g))
	if l.Depth["D"] != 3 {
		t.Errorf("Depth[D] = %d, want 3", l.Depth["D"])
	}
}

func TestAssignLayers_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		g        graph.Graph
		layers   int
		catchAll bool
	}{
		{
			name:   "fully cyclic",
			g:      build(ids("A", "B", "C"), [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}),
			layers: 1,
		},
		{
			name:     "cycle behind a source",
			g:        build(ids("S", "A", "B", "C"), [2]string{"S", "A"}, [2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"B", "C"}),
			layers:   2,
			catchAll: true,
		},
		{
			name:     "self loop",
			g:        build(ids("A", "B"), [2]string{"A", "B"}, [2]string{"B", "B"}),
			layers:   2,
			catchAll: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := graph.NewModel(tt.g)
			l := AssignLayers(m)

			if len(l.Layers) != tt.layers {
				t.Errorf("layers = %d, want %d", len(l.Layers), tt.layers)
			}
			if l.CatchAll != tt.catchAll {
				t.Errorf("CatchAll = %v, want %v", l.CatchAll, tt.catchAll)
			}
			assertPlacedOnce(t, m, l)
		})
	}
}

func TestAssignLayers_Totality(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := range 50 {
		n := 2 + rng.IntN(20)
		var nodes []graph.Node
		for i := range n {
			nodes = append(nodes, graph.Node{ID: fmt.Sprintf("n%d", i)})
		}
		var edges [][2]string
		for i := range n {
			for j := i + 1; j < n; j++ {
				if rng.Float64() < 0.2 {
					edges = append(edges, [2]string{nodes[i].ID, nodes[j].ID})
				}
			}
		}
		m := graph.NewModel(build(nodes, edges...))
		l := AssignLayers(m)

		assertPlacedOnce(t, m, l)
		for _, e := range m.Edges() {
			if l.Depth[e.Source] >= l.Depth[e.Target] {
				t.Fatalf("trial %d: edge %s→%s has depth %d → %d", trial, e.Source, e.Target, l.Depth[e.Source], l.Depth[e.Target])
			}
		}
	}
}

func assertPlacedOnce(t *testing.T, m *graph.Model, l Layering) {
	t.Helper()
	seen := make(map[string]int)
	for d, layer := range l.Layers {
		for _, id := range layer {
			seen[id]++
			if l.Depth[id] != d {
				t.Errorf("node %s in layer %d but Depth = %d", id, d, l.Depth[id])
			}
		}
	}
	for _, n := range m.Nodes() {
		if seen[n.ID] != 1 {
			t.Errorf("node %s placed %d times, want 1", n.ID, seen[n.ID])
		}
	}
}

func TestAssignLayers_Ordering(t *testing.T) {
	// All sources: order by category, then degree, then input order.
	g := build(
		typed("bi", "dashboard", "in1", "csv_input", "in2", "api_input", "arch", "architecture_layer", "x", "custom"),
		[2]string{"in2", "bi"}, [2]string{"in2", "x"},
	)
	l := AssignLayers(graph.NewModel(g))

	want := []string{"arch", "in2", "in1"}
	if diff := cmp.Diff(want, l.Layers[0]); diff != "" {
		t.Errorf("layer 0 order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bi", "x"}, l.Layers[1]); diff != "" {
		t.Errorf("layer 1 order mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignLayers_OrderingIgnoresParents(t *testing.T) {
	// c hangs off b and d off a; ties keep input order, so the edges cross.
	g := build(ids("a", "b", "c", "d"), [2]string{"b", "c"}, [2]string{"a", "d"})
	m := graph.NewModel(g)
	l := AssignLayers(m)

	if diff := cmp.Diff([][]string{{"a", "b"}, {"c", "d"}}, l.Layers); diff != "" {
		t.Errorf("layers (-want +got):\n%s", diff)
	}
	if got := CountCrossings(m, l.Layers); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}
}

func TestHierarchical_Coordinates(t *testing.T) {
	cfg := DefaultConfig()
	pos, _ := Hierarchical(graph.NewModel(linear()), cfg)

	for d, id := range []string{"A", "B", "C", "D"} {
		want := graph.Position{
			X: (cfg.Width - cfg.NodeWidth) / 2,
			Y: cfg.Padding + float64(d)*(cfg.NodeHeight+cfg.VerticalSpacing),
		}
		if pos[id] != want {
			t.Errorf("pos[%s] = %+v, want %+v", id, pos[id], want)
		}
	}
}

func TestHierarchical_WideLayerGrowsCanvas(t *testing.T) {
	cfg := Config{Width: 100}.WithDefaults()
	pos, _ := Hierarchical(graph.NewModel(build(ids("a", "b", "c"))), cfg)

	if pos["a"].X != cfg.Padding {
		t.Errorf("pos[a].X = %v, want padding %v", pos["a"].X, cfg.Padding)
	}
	step := cfg.NodeWidth + cfg.HorizontalSpacing
	if got := pos["c"].X - pos["a"].X; got != 2*step {
		t.Errorf("spread = %v, want %v", got, 2*step)
	}
}

func TestCountLayerCrossings(t *testing.T) {
	g := build(ids("a", "b", "c", "d"), [2]string{"a", "d"}, [2]string{"b", "c"})
	m := graph.NewModel(g)

	if got := CountLayerCrossings(m, []string{"a", "b"}, []string{"c", "d"}); got != 1 {
		t.Errorf("crossed = %d, want 1", got)
	}
	if got := CountLayerCrossings(m, []string{"a", "b"}, []string{"d", "c"}); got != 0 {
		t.Errorf("uncrossed = %d, want 0", got)
	}
	if got := CountCrossings(m, [][]string{{"a", "b"}, {"c", "d"}}); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}
	if got := CountLayerCrossings(m, nil, []string{"c"}); got != 0 {
		t.Errorf("empty layer = %d, want 0", got)
	}
}

func TestGrid(t *testing.T) {
	cfg := DefaultConfig()
	pos := Grid(graph.NewModel(build(ids("a", "b", "c", "d", "e"))), cfg)

	colStep := cfg.NodeWidth + cfg.HorizontalSpacing
	rowStep := cfg.NodeHeight + cfg.VerticalSpacing
	want := map[string]graph.Position{
		"a": {X: cfg.Padding, Y: cfg.Padding},
		"b": {X: cfg.Padding + colStep, Y: cfg.Padding},
		"c": {X: cfg.Padding + 2*colStep, Y: cfg.Padding},
		"d": {X: cfg.Padding, Y: cfg.Padding + rowStep},
		"e": {X: cfg.Padding + colStep, Y: cfg.Padding + rowStep},
	}
	if diff := cmp.Diff(want, pos); diff != "" {
		t.Errorf("Grid mismatch (-want +got):\n%s", diff)
	}
}

func TestCircular(t *testing.T) {
	cfg := DefaultConfig()
	pos := Circular(graph.NewModel(build(ids("a", "b", "c", "d"))), cfg)

	wantRadius := min(cfg.Width, cfg.Height)/2 - cfg.Padding - cfg.NodeHeight
	want := map[string]graph.Position{
		"a": {X: cfg.Width/2 + wantRadius, Y: cfg.Height / 2},
		"b": {X: cfg.Width / 2, Y: cfg.Height/2 + wantRadius},
		"c": {X: cfg.Width/2 - wantRadius, Y: cfg.Height / 2},
		"d": {X: cfg.Width / 2, Y: cfg.Height/2 - wantRadius},
	}
	if diff := cmp.Diff(want, pos, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Circular mismatch (-want +got):\n%s", diff)
	}
}

func TestForce_Deterministic(t *testing.T) {
	g := build(ids("a", "b", "c", "d"), [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"}, [2]string{"c", "d"})
	cfg := Config{Iterations: 50, Seed: 99}

	first, err := Force(context.Background(), graph.NewModel(g), cfg)
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}
	second, err := Force(context.Background(), graph.NewModel(g), cfg)
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed gave different layouts:\n%s", diff)
	}
	for id, p := range first {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("pos[%s] = %+v is not finite", id, p)
		}
	}
}

func TestForce_SeparatesCoincidentNodes(t *testing.T) {
	origin := &graph.Position{X: 300, Y: 300}
	g := graph.Graph{Nodes: []graph.Node{{ID: "a", Position: origin}, {ID: "b", Position: origin}}}

	pos, err := Force(context.Background(), graph.NewModel(g), Config{Iterations: 10})
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}
	if pos["a"] == pos["b"] {
		t.Errorf("coincident nodes were not pushed apart: %+v", pos["a"])
	}
}

func TestForce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos, err := Force(ctx, graph.NewModel(linear()), DefaultConfig())
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if pos != nil {
		t.Error("cancelled simulation should return no positions")
	}
}

func TestForce_Tolerance(t *testing.T) {
	r, err := Run(context.Background(), linear(), StrategyForce, Config{Tolerance: 1e9})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1 (early exit)", r.Iterations)
	}
}

func TestApply(t *testing.T) {
	g := linear()
	g.Edges = append(g.Edges, graph.Edge{ID: "dangling", Source: "D", Target: "ghost"})

	for _, s := range Strategies {
		t.Run(string(s), func(t *testing.T) {
			nodes, err := Apply(context.Background(), g, s, Config{Iterations: 5})
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(nodes) != len(g.Nodes) {
				t.Fatalf("got %d nodes, want %d", len(nodes), len(g.Nodes))
			}
			for i, n := range nodes {
				if n.ID != g.Nodes[i].ID {
					t.Errorf("node %d = %s, want input order %s", i, n.ID, g.Nodes[i].ID)
				}
				if n.Position == nil {
					t.Errorf("node %s has no position", n.ID)
				}
			}
			for _, n := range g.Nodes {
				if n.Position != nil {
					t.Fatal("Apply modified its input")
				}
			}
		})
	}
}

func TestRun_Stats(t *testing.T) {
	g := build(ids("S", "A", "B"), [2]string{"S", "A"}, [2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"B", "x"})
	r, err := Run(context.Background(), g, StrategyHierarchical, Config{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.Cycles != 1 || r.Dropped != 1 || !r.CatchAll || r.Layers != 2 {
		t.Errorf("stats = %+v", r)
	}
}

func TestApply_InvalidInput(t *testing.T) {
	if _, err := Apply(context.Background(), linear(), "spiral", Config{}); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("unknown strategy: error = %v, want INVALID_STRATEGY", err)
	}
	if _, err := Apply(context.Background(), linear(), StrategyGrid, Config{Padding: -1}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative padding: error = %v, want INVALID_INPUT", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyHierarchical, false},
		{"Force", StrategyForce, false},
		{" grid ", StrategyGrid, false},
		{"radial", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	c := Config{Width: 400, Height: 300}.WithDefaults()
	if c.BaseTemperature != 40 {
		t.Errorf("BaseTemperature = %v, want Width/10", c.BaseTemperature)
	}
	if c.CenterX != 200 || c.CenterY != 150 {
		t.Errorf("center = (%v, %v), want canvas center", c.CenterX, c.CenterY)
	}
	if c.Radius != c.NodeWidth {
		t.Errorf("Radius = %v, want floor at NodeWidth %v", c.Radius, c.NodeWidth)
	}
}
