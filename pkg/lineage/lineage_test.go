package lineage

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
)

func model(nodes []graph.Node, edges ...[2]string) *graph.Model {
	g := graph.Graph{Nodes: nodes}
	for i, e := range edges {
		g.Edges = append(g.Edges, graph.Edge{ID: fmt.Sprintf("e%d", i), Source: e[0], Target: e[1]})
	}
	return graph.NewModel(g)
}

func ids(ids ...string) []graph.Node {
	var nodes []graph.Node
	for _, id := range ids {
		nodes = append(nodes, graph.Node{ID: id})
	}
	return nodes
}

func linear() *graph.Model {
	return model([]graph.Node{
		{ID: "A", Type: graph.TypeCSVInput},
		{ID: "B", Type: graph.TypeTransform},
		{ID: "C", Type: graph.TypeModelTrain},
		{ID: "D", Type: graph.TypeCSVOutput},
	}, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"})
}

func diamond() *graph.Model {
	return model(ids("A", "B", "C", "D"),
		[2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"B", "D"}, [2]string{"C", "D"})
}

func sorted(s graph.Set) []string { return s.Sorted() }

func TestLineage_Linear(t *testing.T) {
	m := linear()
	tests := []struct {
		mode Mode
		seed string
		want []string
	}{
		{ModeImpact, "C", []string{"C", "D"}},
		{ModeDependency, "C", []string{"A", "B", "C"}},
		{ModePath, "C", []string{"A", "B", "C", "D"}},
		{ModePath, "A", []string{"A", "B", "C", "D"}},
		{ModeImpact, "D", []string{"D"}},
		{ModeDependency, "A", []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.mode, tt.seed), func(t *testing.T) {
			got, err := Lineage(m, tt.seed, tt.mode)
			if err != nil {
				t.Fatalf("Lineage() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sorted(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLineage_PathBranches(t *testing.T) {
	tests := []struct {
		name string
		m    *graph.Model
		seed string
		want []string
	}{
		// The sibling branch C shares A and D with B but lies on no path through B.
		{"diamond branch", diamond(), "B", []string{"A", "B", "D"}},
		{"diamond source", diamond(), "A", []string{"A", "B", "C", "D"}},
		{"cycle upstream", model(ids("A", "B", "C"),
			[2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"B", "C"}), "C", []string{"A", "B", "C"}},
		{"cycle upstream with sink", model(ids("A", "B", "C", "D"),
			[2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"B", "C"}, [2]string{"C", "D"}), "C", []string{"A", "B", "C", "D"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lineage(tt.m, tt.seed, ModePath)
			if err != nil {
				t.Fatalf("Lineage() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sorted(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLineage_Critical(t *testing.T) {
	got, err := Lineage(diamond(), "A", ModeCritical)
	if err != nil {
		t.Fatalf("Lineage() error = %v", err)
	}
	if !got.Has("A") || !got.Has("D") {
		t.Errorf("critical(A) = %v, want A (fan-out) and D (fan-in)", sorted(got))
	}
	if got.Has("B") || got.Has("C") {
		t.Errorf("critical(A) = %v, B and C meet no criterion", sorted(got))
	}
}

func TestLineage_CriticalFanIn(t *testing.T) {
	// X has in-degree 3 and must always be critical.
	m := model(ids("s", "a", "b", "c", "X"),
		[2]string{"s", "a"}, [2]string{"s", "b"}, [2]string{"s", "c"},
		[2]string{"a", "X"}, [2]string{"b", "X"}, [2]string{"c", "X"})
	for _, seed := range []string{"s", "X"} {
		got, _ := Lineage(m, seed, ModeCritical)
		if !got.Has("X") {
			t.Errorf("critical(%s) = %v, missing X", seed, sorted(got))
		}
	}
}

func TestLineage_SeedAlwaysIncluded(t *testing.T) {
	m := linear()
	for _, mode := range Modes {
		got, err := Lineage(m, "ghost", mode)
		if err != nil {
			t.Fatalf("Lineage(%s) error = %v", mode, err)
		}
		if diff := cmp.Diff([]string{"ghost"}, sorted(got)); diff != "" {
			t.Errorf("%s: unknown seed (-want +got):\n%s", mode, diff)
		}
	}
}

func TestLineage_InvalidMode(t *testing.T) {
	if _, err := Lineage(linear(), "A", "blast-radius"); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("error = %v, want INVALID_MODE", err)
	}
	if _, err := ParseMode("Impact"); err != nil {
		t.Errorf("ParseMode(Impact) error = %v", err)
	}
	if _, err := ParseMode("nope"); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("ParseMode(nope) error = %v, want INVALID_MODE", err)
	}
}

func TestRelated_Cycles(t *testing.T) {
	m := model(ids("A", "B", "C", "D"),
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}, [2]string{"C", "D"})

	down := Related(m, "A", Downstream)
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, sorted(down)); diff != "" {
		t.Errorf("downstream on cycle (-want +got):\n%s", diff)
	}
	up := Related(m, "D", Upstream)
	if diff := cmp.Diff([]string{"A", "B", "C"}, sorted(up)); diff != "" {
		t.Errorf("upstream of D (-want +got):\n%s", diff)
	}
}

func TestRelated_NoMixing(t *testing.T) {
	// B's sibling C is neither upstream nor downstream of B.
	m := model(ids("A", "B", "C"), [2]string{"A", "B"}, [2]string{"A", "C"})
	got := Related(m, "B", Both)
	if diff := cmp.Diff([]string{"A"}, sorted(got)); diff != "" {
		t.Errorf("Related(B, both) (-want +got):\n%s", diff)
	}
}

func TestRelatedWithin(t *testing.T) {
	m := linear()
	tests := []struct {
		depth int
		want  []string
	}{
		{1, []string{"B"}},
		{2, []string{"B", "C"}},
		{0, []string{"B", "C", "D"}},
		{10, []string{"B", "C", "D"}},
	}
	for _, tt := range tests {
		got := RelatedWithin(m, "A", Downstream, tt.depth)
		if diff := cmp.Diff(tt.want, sorted(got)); diff != "" {
			t.Errorf("depth %d (-want +got):\n%s", tt.depth, diff)
		}
	}
}

// reachable computes the transitive closure by repeated relaxation.
func reachable(n int, adj [][]bool) [][]bool {
	r := make([][]bool, n)
	for i := range n {
		r[i] = append([]bool(nil), adj[i]...)
	}
	for k := range n {
		for i := range n {
			for j := range n {
				if r[i][k] && r[k][j] {
					r[i][j] = true
				}
			}
		}
	}
	return r
}

func TestRelated_Soundness(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for trial := range 40 {
		n := 2 + rng.IntN(12)
		adj := make([][]bool, n)
		for i := range adj {
			adj[i] = make([]bool, n)
		}
		var nodes []graph.Node
		for i := range n {
			nodes = append(nodes, graph.Node{ID: fmt.Sprintf("n%d", i)})
		}
		var edges [][2]string
		for i := range n {
			for j := range n {
				if rng.Float64() < 0.15 {
					adj[i][j] = true
					edges = append(edges, [2]string{nodes[i].ID, nodes[j].ID})
				}
			}
		}
		m := model(nodes, edges...)
		closure := reachable(n, adj)

		for s := range n {
			up := Related(m, nodes[s].ID, Upstream)
			down := Related(m, nodes[s].ID, Downstream)
			for o := range n {
				if up.Has(nodes[o].ID) != closure[o][s] {
					t.Fatalf("trial %d: upstream(%d) has %d = %v, want %v", trial, s, o, up.Has(nodes[o].ID), closure[o][s])
				}
				if down.Has(nodes[o].ID) != closure[s][o] {
					t.Fatalf("trial %d: downstream(%d) has %d = %v, want %v", trial, s, o, down.Has(nodes[o].ID), closure[s][o])
				}
			}
		}

		// impact/dependency symmetry along every edge
		for _, e := range m.Edges() {
			impact, _ := Lineage(m, e.Source, ModeImpact)
			dependency, _ := Lineage(m, e.Target, ModeDependency)
			if !impact.Has(e.Target) || !dependency.Has(e.Source) {
				t.Fatalf("trial %d: symmetry broken on %s→%s", trial, e.Source, e.Target)
			}
		}
	}
}

func TestExplain(t *testing.T) {
	got := Explain(linear(), "C")
	want := []Finding{
		{ID: "B", Reasons: []Reason{ReasonCombiner, ReasonBottleneck}},
		{ID: "C", Reasons: []Reason{ReasonMLStage, ReasonBottleneck}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Explain mismatch (-want +got):\n%s", diff)
	}
}

func TestExplain_Bottleneck(t *testing.T) {
	// P→X→Y is the only route unless the bypass P→Z→Y exists.
	withBypass := model(ids("P", "X", "Y", "Z"),
		[2]string{"P", "X"}, [2]string{"X", "Y"}, [2]string{"P", "Z"}, [2]string{"Z", "Y"})
	for _, seed := range []string{"X", "P", "Y"} {
		for _, f := range Explain(withBypass, seed) {
			if f.ID == "X" {
				t.Errorf("Explain(%s): X has a bypass but was reported: %v", seed, f.Reasons)
			}
		}
	}

	without := model(ids("P", "X", "Y", "Z"),
		[2]string{"P", "X"}, [2]string{"X", "Y"}, [2]string{"P", "Z"})
	found := false
	for _, f := range Explain(without, "X") {
		if f.ID == "X" {
			found = cmp.Equal(f.Reasons, []Reason{ReasonBottleneck})
		}
	}
	if !found {
		t.Error("X should be reported as a bottleneck")
	}
}

func TestExplain_UnknownSeed(t *testing.T) {
	if got := Explain(linear(), "ghost"); got != nil {
		t.Errorf("Explain(ghost) = %v, want nil", got)
	}
}
