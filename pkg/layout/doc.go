// Package layout computes node placements for a pipeline graph.
//
// Four strategies are available through [Apply]:
//
//   - [Hierarchical]: longest-path layering (Kahn's algorithm) with nodes
//     ordered by type inside each layer and each layer centered
//   - [Force]: a spring-electrical simulation with a cooling schedule
//   - [Circular]: nodes evenly spaced on a circle
//   - [Grid]: nodes in a near-square grid
//
// All strategies accept any graph. Edges pointing at missing nodes are
// ignored, and cycles never stop the hierarchical layering: nodes that cannot
// be reached by the topological walk are placed in a final catch-all layer.
//
// Layout functions do not modify the graph they are handed. [Apply] returns a
// fresh node slice in input order with every Position set.
//
// # Usage
//
//	nodes, err := layout.Apply(ctx, g, layout.StrategyHierarchical, layout.DefaultConfig())
//
// [Run] returns the same nodes plus statistics (layer count, crossings,
// cycles, simulation rounds) for callers that report on the layout.
package layout
