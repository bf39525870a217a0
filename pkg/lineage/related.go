package lineage

import "github.com/matzehuels/pipegraph/pkg/graph"

// Direction selects which edges a walk follows.
type Direction struct {
	// Upstream follows edges where the current node is the target.
	Upstream bool `json:"upstream"`
	// Downstream follows edges where the current node is the source.
	Downstream bool `json:"downstream"`
}

var (
	Upstream   = Direction{Upstream: true}
	Downstream = Direction{Downstream: true}
	Both       = Direction{Upstream: true, Downstream: true}
)

// Related returns the nodes reachable from seed in at least one edge step,
// following the requested directions. When both are set the result is the
// union of the separate upstream and downstream walks; directions are never
// mixed within one walk.
//
// The seed itself is part of the result only if it lies on a cycle. An
// unknown seed yields an empty set.
func Related(m *graph.Model, seed string, dir Direction) graph.Set {
	return RelatedWithin(m, seed, dir, 0)
}

// RelatedWithin is like [Related] but stops after depth edge steps in each
// direction. A depth of 0 means unbounded.
func RelatedWithin(m *graph.Model, seed string, dir Direction, depth int) graph.Set {
	out := graph.NewSet()
	if !m.Contains(seed) {
		return out
	}
	if dir.Upstream {
		out.Union(walk(seed, depth, m.Parents))
	}
	if dir.Downstream {
		out.Union(walk(seed, depth, m.Children))
	}
	return out
}

// walk runs a breadth-first search from seed over next. Each node is
// expanded at most once.
func walk(seed string, depth int, next func(string) []string) graph.Set {
	reached := graph.NewSet()
	expanded := graph.NewSet(seed)
	frontier := []string{seed}

	for level := 1; len(frontier) > 0 && (depth == 0 || level <= depth); level++ {
		var following []string
		for _, id := range frontier {
			for _, n := range next(id) {
				reached.Add(n)
				if !expanded.Has(n) {
					expanded.Add(n)
					following = append(following, n)
				}
			}
		}
		frontier = following
	}
	return reached
}
