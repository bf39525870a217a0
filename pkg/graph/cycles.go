package graph

// BackEdges returns the edges that close a cycle, found by a depth-first
// search with white/gray/black coloring. Traversal starts from source nodes
// and then from any node left unvisited (nodes that only sit on cycles), both
// in input order, so the result is deterministic.
//
// An empty result means the graph is acyclic. Self-loops are reported as back
// edges. The model is not modified.
func BackEdges(m *Model) []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, m.NodeCount())
	var back []Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range m.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{Source: node, Target: child})
			}
		}
		color[node] = black
	}

	for _, id := range m.Sources() {
		if color[id] == white {
			dfs(id)
		}
	}

	for _, n := range m.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	return back
}

// HasCycle reports whether the graph contains at least one directed cycle.
func HasCycle(m *Model) bool {
	return len(BackEdges(m)) > 0
}
