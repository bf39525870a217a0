package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
)

func sample() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "src", Type: graph.TypeCSVInput, Position: &graph.Position{X: 0, Y: 0}, Data: graph.NodeData{Label: "Orders CSV", GroupIDs: []string{"g1"}}},
		{ID: "clean", Type: graph.TypeClean, Position: &graph.Position{X: 100, Y: 200}, Data: graph.NodeData{Tags: []string{"daily"}}},
		{ID: "free"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "src", Target: "clean", Data: graph.EdgeData{TransferType: graph.TransferRealtime, Label: "rows"}},
		{ID: "e2", Source: "clean", Target: "ghost"},
	}
	return nodes, edges
}

func TestToDOT(t *testing.T) {
	nodes, edges := sample()
	got := ToDOT(nodes, edges, Options{GroupColors: map[string]string{"g1": "#abc"}, Title: "ETL"})

	for _, want := range []string{
		"digraph G {",
		`label="ETL";`,
		`width=2.5, height=0.8333333333333334`,
		`"src" [label="Orders CSV", fillcolor="#aabbcc", pos="90,-30!"];`,
		`"clean" [label="clean", fillcolor="#ffffff", pos="190,-230!"];`,
		`"free" [label="free", fillcolor="#ffffff"];`,
		`"src" -> "clean" [label="rows", style=dashed];`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DOT missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ghost") {
		t.Errorf("dangling edge should be skipped:\n%s", got)
	}
}

func TestToDOT_Highlight(t *testing.T) {
	nodes, edges := sample()
	got := ToDOT(nodes, edges, Options{Highlight: graph.NewSet("src", "clean")})

	if !strings.Contains(got, `"src" [label="Orders CSV", fillcolor="#ffffff", pos="90,-30!", penwidth=3, color="#1f6feb"];`) {
		t.Errorf("highlighted node not emphasized:\n%s", got)
	}
	if !strings.Contains(got, `"free" [label="free", fillcolor="#ffffff", color="#b0b0b0", fontcolor="#b0b0b0"];`) {
		t.Errorf("other node not dimmed:\n%s", got)
	}
	if !strings.Contains(got, `"src" -> "clean" [label="rows", style=dashed, penwidth=2, color="#1f6feb"];`) {
		t.Errorf("edge inside highlight not emphasized:\n%s", got)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	nodes, _ := sample()
	got := ToDOT(nodes[1:2], nil, Options{Detailed: true})
	if !strings.Contains(got, `label="clean\nclean\ndaily"`) {
		t.Errorf("detailed label missing type and tags:\n%s", got)
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#FFE4E1", "#ffe4e1", true},
		{"#abc", "#aabbcc", true},
		{"hsl(0, 100%, 50%)", "#ff0000", true},
		{"hsl(120,100%,25%)", "#008000", true},
		{"", "", false},
		{"blue", "", false},
	}
	for _, tt := range tests {
		got, ok := Color(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Color(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFill_FirstKnownGroup(t *testing.T) {
	n := graph.Node{ID: "n", Data: graph.NodeData{GroupIDs: []string{"gone", "bad", "g2"}}}
	colors := map[string]string{"bad": "not-a-color", "g2": "#E8F5E9"}
	if got := fill(n, colors); got != "#e8f5e9" {
		t.Errorf("fill() = %q, want #e8f5e9", got)
	}
}

func TestRender_DOT(t *testing.T) {
	nodes, edges := sample()
	got, err := Render(context.Background(), nodes, edges, "DOT", Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != ToDOT(nodes, edges, Options{}) {
		t.Error("Render(dot) should return the DOT source")
	}

	_, err = Render(context.Background(), nodes, edges, "gif", Options{})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render(gif) error = %v, want UNSUPPORTED", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
