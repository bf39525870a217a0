package graph

// Model is a read-only adjacency index over a Graph snapshot. It answers the
// neighbour and degree queries every layout and traversal algorithm needs.
//
// Building a Model never fails. Edges that reference a node missing from the
// snapshot are left out of the index and reported by [Model.Dropped]; repeated
// node IDs keep their first occurrence and are reported by [Model.Duplicates].
//
// A Model is safe for concurrent reads. It does not copy the nodes it indexes,
// so callers must not modify the snapshot while the Model is in use.
type Model struct {
	nodes      []Node         // unique nodes in input order
	index      map[string]int // nodeID -> position in nodes
	edges      []Edge         // valid edges in input order
	outgoing   map[string][]string
	incoming   map[string][]string
	dropped    []Edge
	duplicates []string
}

// NewModel indexes the given graph.
func NewModel(g Graph) *Model {
	m := &Model{
		nodes:    make([]Node, 0, len(g.Nodes)),
		index:    make(map[string]int, len(g.Nodes)),
		edges:    make([]Edge, 0, len(g.Edges)),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}

	for _, n := range g.Nodes {
		if _, exists := m.index[n.ID]; exists {
			m.duplicates = append(m.duplicates, n.ID)
			continue
		}
		m.index[n.ID] = len(m.nodes)
		m.nodes = append(m.nodes, n)
	}

	for _, e := range g.Edges {
		if !m.Contains(e.Source) || !m.Contains(e.Target) {
			m.dropped = append(m.dropped, e)
			continue
		}
		m.edges = append(m.edges, e)
		m.outgoing[e.Source] = append(m.outgoing[e.Source], e.Target)
		m.incoming[e.Target] = append(m.incoming[e.Target], e.Source)
	}

	return m
}

// Nodes returns the indexed nodes in input order. The returned slice must not
// be modified.
func (m *Model) Nodes() []Node { return m.nodes }

// Edges returns the valid edges in input order. The returned slice must not
// be modified.
func (m *Model) Edges() []Edge { return m.edges }

// Dropped returns edges excluded because an endpoint does not exist.
func (m *Model) Dropped() []Edge { return m.dropped }

// Duplicates returns node IDs that appeared more than once in the snapshot.
func (m *Model) Duplicates() []string { return m.duplicates }

// NodeCount returns the number of distinct nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of valid edges.
func (m *Model) EdgeCount() int { return len(m.edges) }

// Contains reports whether a node with the given ID exists.
func (m *Model) Contains(id string) bool {
	_, ok := m.index[id]
	return ok
}

// Node returns the node with the given ID and true, or the zero Node and
// false if not found.
func (m *Model) Node(id string) (Node, bool) {
	i, ok := m.index[id]
	if !ok {
		return Node{}, false
	}
	return m.nodes[i], true
}

// Index returns the input-order position of the node, or -1.
func (m *Model) Index(id string) int {
	if i, ok := m.index[id]; ok {
		return i
	}
	return -1
}

// Children returns the targets of the node's outgoing edges, one entry per
// edge. The returned slice should not be modified.
func (m *Model) Children(id string) []string { return m.outgoing[id] }

// Parents returns the sources of the node's incoming edges, one entry per
// edge. The returned slice should not be modified.
func (m *Model) Parents(id string) []string { return m.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (m *Model) OutDegree(id string) int { return len(m.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (m *Model) InDegree(id string) int { return len(m.incoming[id]) }

// Degree returns the total number of edges touching the node.
func (m *Model) Degree(id string) int { return m.InDegree(id) + m.OutDegree(id) }

// HasEdge reports whether a valid edge from → to exists.
func (m *Model) HasEdge(from, to string) bool {
	for _, c := range m.outgoing[from] {
		if c == to {
			return true
		}
	}
	return false
}

// Sources returns the IDs of nodes with no incoming edges, in input order.
func (m *Model) Sources() []string {
	var sources []string
	for _, n := range m.nodes {
		if len(m.incoming[n.ID]) == 0 {
			sources = append(sources, n.ID)
		}
	}
	return sources
}

// Sinks returns the IDs of nodes with no outgoing edges, in input order.
func (m *Model) Sinks() []string {
	var sinks []string
	for _, n := range m.nodes {
		if len(m.outgoing[n.ID]) == 0 {
			sinks = append(sinks, n.ID)
		}
	}
	return sinks
}

// Induced returns the sub-graph made of the nodes in keep, in input order,
// and the valid edges whose endpoints are both kept.
func (m *Model) Induced(keep Set) Graph {
	out := Graph{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range m.nodes {
		if keep.Has(n.ID) {
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}
	for _, e := range m.edges {
		if keep.Has(e.Source) && keep.Has(e.Target) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
