// Package lineage answers reachability questions about a node in a pipeline
// graph: what it depends on, what depends on it, and which nodes around it
// are structurally important.
//
// [Related] is the core primitive: a visited-set guarded walk following edges
// upstream (towards sources), downstream (towards sinks), or both. It is safe
// on cyclic graphs and visits each node once.
//
// [Lineage] builds four analysis modes on top of it:
//
//   - [ModeImpact]: the seed and everything downstream of it
//   - [ModeDependency]: the seed and everything upstream of it
//   - [ModePath]: the seed and every node on a source→seed→sink path
//   - [ModeCritical]: the seed and the important nodes of its component
//
// [Explain] reports why each node was marked critical.
package lineage
