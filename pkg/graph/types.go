package graph

import (
	"maps"
	"slices"
)

// =============================================================================
// Node Types
// =============================================================================

// NodeType identifies the kind of pipeline step a node represents.
type NodeType string

// Architecture nodes.
const (
	TypeArchitectureLayer     NodeType = "architecture_layer"
	TypeArchitectureComponent NodeType = "architecture_component"
)

// Input nodes.
const (
	TypeCSVInput      NodeType = "csv_input"
	TypeDatabaseInput NodeType = "database_input"
	TypeAPIInput      NodeType = "api_input"
	TypeStreamInput   NodeType = "stream_input"
)

// Processing nodes.
const (
	TypeTransform          NodeType = "transform"
	TypeFilter             NodeType = "filter"
	TypeClean              NodeType = "clean"
	TypeFeatureEngineering NodeType = "feature_engineering"
)

// Combining nodes.
const (
	TypeAggregate NodeType = "aggregate"
	TypeJoin      NodeType = "join"
	TypeSplit     NodeType = "split"
)

// Machine learning nodes.
const (
	TypeModelTrain    NodeType = "model_train"
	TypeModelPredict  NodeType = "model_predict"
	TypeModelEvaluate NodeType = "model_evaluate"
)

// Output nodes.
const (
	TypeDataMart       NodeType = "data_mart"
	TypeCSVOutput      NodeType = "csv_output"
	TypeDatabaseOutput NodeType = "database_output"
	TypeAPIOutput      NodeType = "api_output"
	TypeDashboard      NodeType = "dashboard"
	TypeReport         NodeType = "report"
)

// Category groups node types for ordering within a layer. Lower categories
// are placed further left.
type Category int

const (
	CategoryArchitecture Category = iota
	CategoryInput
	CategoryProcessing
	CategoryCombine
	CategoryTrain
	CategoryPredict
	CategoryMart
	CategoryOutput
	CategoryBI
	CategoryUnknown
)

var categories = map[NodeType]Category{
	TypeArchitectureLayer:     CategoryArchitecture,
	TypeArchitectureComponent: CategoryArchitecture,
	TypeCSVInput:              CategoryInput,
	TypeDatabaseInput:         CategoryInput,
	TypeAPIInput:              CategoryInput,
	TypeStreamInput:           CategoryInput,
	TypeTransform:             CategoryProcessing,
	TypeFilter:                CategoryProcessing,
	TypeClean:                 CategoryProcessing,
	TypeFeatureEngineering:    CategoryProcessing,
	TypeAggregate:             CategoryCombine,
	TypeJoin:                  CategoryCombine,
	TypeSplit:                 CategoryCombine,
	TypeModelTrain:            CategoryTrain,
	TypeModelPredict:          CategoryPredict,
	TypeModelEvaluate:         CategoryPredict,
	TypeDataMart:              CategoryMart,
	TypeCSVOutput:             CategoryOutput,
	TypeDatabaseOutput:        CategoryOutput,
	TypeAPIOutput:             CategoryOutput,
	TypeDashboard:             CategoryBI,
	TypeReport:                CategoryBI,
}

// Category returns the ordering category of t. Unknown types report
// CategoryUnknown and sort after every known kind.
func (t NodeType) Category() Category {
	if c, ok := categories[t]; ok {
		return c
	}
	return CategoryUnknown
}

// Known reports whether t is one of the predefined node types.
func (t NodeType) Known() bool {
	_, ok := categories[t]
	return ok
}

// IsMLStage reports whether t trains, predicts with, or evaluates a model.
func (t NodeType) IsMLStage() bool {
	switch t {
	case TypeModelTrain, TypeModelPredict, TypeModelEvaluate:
		return true
	}
	return false
}

// IsCombiner reports whether t reshapes data from its inputs
// (join, aggregate, transform).
func (t NodeType) IsCombiner() bool {
	switch t {
	case TypeJoin, TypeAggregate, TypeTransform:
		return true
	}
	return false
}

// NodeTypes returns every predefined node type sorted by category, then name.
func NodeTypes() []NodeType {
	types := slices.Collect(maps.Keys(categories))
	slices.SortFunc(types, func(a, b NodeType) int {
		if ca, cb := a.Category(), b.Category(); ca != cb {
			return int(ca) - int(cb)
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return types
}

// =============================================================================
// Node
// =============================================================================

// Position is a 2D coordinate on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the user-editable payload of a node.
type NodeData struct {
	Label    string   `json:"label"`
	Tags     []string `json:"tags,omitempty"`
	GroupIDs []string `json:"groupIds,omitempty"`
	// GroupID is the single-group field written by older versions.
	// Normalize migrates it into GroupIDs.
	GroupID    string         `json:"groupId,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Node is a typed vertex in the pipeline graph. A nil Position means the node
// has not been placed yet.
type Node struct {
	ID       string    `json:"id"`
	Type     NodeType  `json:"type"`
	Position *Position `json:"position,omitempty"`
	Data     NodeData  `json:"data"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// Groups returns the node's group memberships. The GroupIDs list wins; the
// legacy GroupID is only consulted when the list is empty.
func (n Node) Groups() []string {
	if len(n.Data.GroupIDs) > 0 {
		return n.Data.GroupIDs
	}
	if n.Data.GroupID != "" {
		return []string{n.Data.GroupID}
	}
	return nil
}

// HasTag reports whether the node carries any of the given tags.
func (n Node) HasTag(tags Set) bool {
	for _, t := range n.Data.Tags {
		if tags.Has(t) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the node. Parameter values are copied
// shallowly.
func (n Node) Clone() Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	out.Data.Tags = slices.Clone(n.Data.Tags)
	out.Data.GroupIDs = slices.Clone(n.Data.GroupIDs)
	out.Data.Parameters = maps.Clone(n.Data.Parameters)
	return out
}

// WithPosition returns a copy of the node placed at p.
func (n Node) WithPosition(p Position) Node {
	out := n.Clone()
	out.Position = &p
	return out
}

// =============================================================================
// Edge
// =============================================================================

// TransferType describes how data moves along an edge.
type TransferType string

const (
	TransferBatch    TransferType = "batch"
	TransferRealtime TransferType = "realtime"
)

// EdgeData carries the payload of an edge.
type EdgeData struct {
	TransferType TransferType `json:"transferType,omitempty"`
	Label        string       `json:"label,omitempty"`
}

// Edge is a directed connection from Source to Target.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Data   EdgeData `json:"data"`
}

// =============================================================================
// Graph
// =============================================================================

// Graph is a snapshot of the pipeline: the node and edge collections the
// engine reads. Engine functions never modify a Graph they are handed; they
// return new slices.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: slices.Clone(g.Edges),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}
