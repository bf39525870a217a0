package lineage

import "github.com/matzehuels/pipegraph/pkg/graph"

// Reason explains why a node is considered critical.
type Reason string

const (
	// ReasonFanIn: two or more predecessors inside the component.
	ReasonFanIn Reason = "fan-in"
	// ReasonFanOut: two or more successors inside the component.
	ReasonFanOut Reason = "fan-out"
	// ReasonMLStage: the node trains, predicts with, or evaluates a model.
	ReasonMLStage Reason = "ml-stage"
	// ReasonCombiner: a join, aggregate or transform step connected to the
	// rest of the component.
	ReasonCombiner Reason = "combiner"
	// ReasonBottleneck: the only route from its predecessor to its successors.
	ReasonBottleneck Reason = "bottleneck"
)

// Finding lists the reasons a node was marked critical.
type Finding struct {
	ID      string   `json:"id"`
	Reasons []Reason `json:"reasons"`
}

// Explain returns the critical nodes of the component around seed (the seed
// plus everything upstream and downstream of it), in input order. Degrees are
// counted over distinct neighbours inside the component, ignoring self loops.
//
// A node X is a bottleneck when it has exactly one predecessor P, at least one
// successor, and no other successor of P has an edge to a successor of X.
//
// The seed is only listed when it meets a criterion itself. An unknown seed
// yields no findings.
func Explain(m *graph.Model, seed string) []Finding {
	if !m.Contains(seed) {
		return nil
	}
	component := Related(m, seed, Both)
	component.Add(seed)

	var findings []Finding
	for _, n := range m.Nodes() {
		if !component.Has(n.ID) {
			continue
		}
		if reasons := assess(m, component, n); len(reasons) > 0 {
			findings = append(findings, Finding{ID: n.ID, Reasons: reasons})
		}
	}
	return findings
}

func assess(m *graph.Model, component graph.Set, n graph.Node) []Reason {
	preds := neighbours(m.Parents(n.ID), n.ID, component)
	succs := neighbours(m.Children(n.ID), n.ID, component)

	var reasons []Reason
	if len(preds) >= 2 {
		reasons = append(reasons, ReasonFanIn)
	}
	if len(succs) >= 2 {
		reasons = append(reasons, ReasonFanOut)
	}
	if n.Type.IsMLStage() {
		reasons = append(reasons, ReasonMLStage)
	}
	if n.Type.IsCombiner() && len(preds)+len(succs) > 0 {
		reasons = append(reasons, ReasonCombiner)
	}
	if len(preds) == 1 && len(succs) > 0 && isBottleneck(m, component, n.ID, preds[0], succs) {
		reasons = append(reasons, ReasonBottleneck)
	}
	return reasons
}

// neighbours returns the distinct IDs in ids that are in the component,
// excluding self.
func neighbours(ids []string, self string, component graph.Set) []string {
	seen := graph.NewSet()
	var out []string
	for _, id := range ids {
		if id == self || !component.Has(id) || seen.Has(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}

func isBottleneck(m *graph.Model, component graph.Set, id, pred string, succs []string) bool {
	targets := graph.NewSet(succs...)
	for _, sibling := range m.Children(pred) {
		if sibling == id {
			continue
		}
		for _, next := range m.Children(sibling) {
			if targets.Has(next) {
				return false
			}
		}
	}
	return true
}
