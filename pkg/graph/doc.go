// Package graph provides the node/edge data model of a pipeline graph and a
// read-only adjacency view over it.
//
// # Core Types
//
//   - [Node], [Edge]: typed pipeline steps and the directed connections between them
//   - [Graph]: a snapshot of both collections, passed by value into every engine function
//   - [Model]: adjacency and degree index built from a Graph
//   - [Set]: a set of node IDs returned by traversal and slicing
//
// # Malformed Input
//
// The engine works on whatever the editor hands it. [NewModel] never fails:
// edges whose source or target does not exist are excluded from adjacency and
// degree counts (see [Model.Dropped]), and repeated node IDs keep their first
// occurrence. Cycles are allowed; [BackEdges] reports them without changing
// anything.
//
// # Group Membership
//
// Nodes may belong to any number of groups through NodeData.GroupIDs. Older
// saved graphs used a single GroupID field. [ReadGraph] runs [Normalize] once
// at load time to migrate those records; [Node.Groups] still reads both forms
// for data that did not go through the loader.
//
// # Serialization
//
// Graphs use the editor's JSON format:
//
//	{
//	  "nodes": [{"id": "a", "type": "csv_input", "position": {"x": 0, "y": 0}, "data": {"label": "Raw"}}],
//	  "edges": [{"id": "e1", "source": "a", "target": "b", "data": {"transferType": "batch"}}]
//	}
package graph
