// Package slice extracts filtered sub-graphs from a pipeline graph and
// summarizes the active filters as a runnable command line.
//
// [Apply] runs a fixed pipeline over a graph snapshot:
//
//  1. Tag filter: keep nodes carrying any of Options.Tags
//  2. Type filter: keep nodes whose type is in Options.Types
//  3. Group filter: keep nodes belonging to any of Options.Groups
//  4. Selection expansion: replace the node set by what is reachable from
//     the selected nodes, according to Options.Mode and Options.Depth
//  5. Edge visibility: keep only edges whose endpoints both survived
//
// Empty filter lists are no-ops. The input graph is never modified and the
// result keeps the input order of nodes and edges.
package slice

import (
	"slices"
	"strings"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/lineage"
)

// Mode controls how selected nodes expand.
type Mode string

const (
	// ModeFrom keeps the selection and everything downstream of it.
	ModeFrom Mode = "from"
	// ModeTo keeps the selection and everything upstream of it.
	ModeTo Mode = "to"
	// ModeAround keeps the selection and everything upstream or downstream.
	ModeAround Mode = "around"
	// ModeBetween keeps the nodes on paths from the first selected node to
	// any of the others.
	ModeBetween Mode = "between"
)

// DefaultMode is used when Options.Mode is empty.
const DefaultMode = ModeFrom

// Modes lists every slice mode in display order.
var Modes = []Mode{ModeFrom, ModeTo, ModeAround, ModeBetween}

// ParseMode converts a user-supplied name into a Mode. An empty name selects
// [DefaultMode].
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return DefaultMode, nil
	}
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Modes, m) {
		return "", errors.New(errors.ErrCodeInvalidMode,
			"invalid slice mode: %q (must be one of: from, to, around, between)", name)
	}
	return m, nil
}

// Options selects the sub-graph to extract.
type Options struct {
	Tags      []string `json:"tags,omitempty"`
	Types     []string `json:"types,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	Selection []string `json:"selection,omitempty"`
	Mode      Mode     `json:"mode,omitempty"`
	// Depth bounds selection expansion to this many edge steps in each
	// direction. 0 means unbounded.
	Depth int `json:"depth,omitempty"`
}

// Validate checks the mode and depth.
func (o Options) Validate() error {
	if o.Mode != "" {
		if _, err := ParseMode(string(o.Mode)); err != nil {
			return err
		}
	}
	if o.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depth must not be negative (got %d)", o.Depth)
	}
	return nil
}

// Result is an extracted sub-graph and the command line describing it.
type Result struct {
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
	Command string       `json:"command"`
}

// Graph returns the result as a graph snapshot.
func (r Result) Graph() graph.Graph {
	return graph.Graph{Nodes: r.Nodes, Edges: r.Edges}
}

// Apply extracts the sub-graph of g selected by opts.
func Apply(g graph.Graph, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	mode, _ := ParseMode(string(opts.Mode))

	m := graph.NewModel(g)
	keep := graph.NewSet()
	for _, n := range m.Nodes() {
		keep.Add(n.ID)
	}

	tags := graph.NewSet(opts.Tags...)
	keep = filter(m, keep, len(opts.Tags) > 0, func(n graph.Node) bool {
		return n.HasTag(tags)
	})
	types := graph.NewSet(opts.Types...)
	keep = filter(m, keep, len(opts.Types) > 0, func(n graph.Node) bool {
		return types.Has(string(n.Type))
	})
	groups := graph.NewSet(opts.Groups...)
	keep = filter(m, keep, len(opts.Groups) > 0, func(n graph.Node) bool {
		return slices.ContainsFunc(n.Groups(), groups.Has)
	})

	if len(opts.Selection) > 0 {
		keep = expand(graph.NewModel(m.Induced(keep)), opts.Selection, mode, opts.Depth)
	}

	sub := m.Induced(keep)
	return Result{Nodes: sub.Nodes, Edges: sub.Edges, Command: Command(opts)}, nil
}

func filter(m *graph.Model, keep graph.Set, active bool, match func(graph.Node) bool) graph.Set {
	if !active {
		return keep
	}
	out := graph.NewSet()
	for _, n := range m.Nodes() {
		if keep.Has(n.ID) && match(n) {
			out.Add(n.ID)
		}
	}
	return out
}

// expand replaces the node set by the reachability expansion of the
// selection inside the filtered sub-graph m. Selected IDs missing from m are
// ignored.
func expand(m *graph.Model, selection []string, mode Mode, depth int) graph.Set {
	var seeds []string
	for _, id := range selection {
		if m.Contains(id) && !slices.Contains(seeds, id) {
			seeds = append(seeds, id)
		}
	}

	out := graph.NewSet(seeds...)
	if mode == ModeBetween {
		return out.Union(between(m, seeds, depth))
	}

	var dir lineage.Direction
	switch mode {
	case ModeFrom:
		dir = lineage.Downstream
	case ModeTo:
		dir = lineage.Upstream
	case ModeAround:
		dir = lineage.Both
	}
	for _, seed := range seeds {
		out.Union(lineage.RelatedWithin(m, seed, dir, depth))
	}
	return out
}

// between returns the nodes downstream of seeds[0] (within depth) that can
// reach at least one of seeds[1:], including those targets.
func between(m *graph.Model, seeds []string, depth int) graph.Set {
	out := graph.NewSet()
	if len(seeds) < 2 {
		return out
	}
	forward := lineage.RelatedWithin(m, seeds[0], lineage.Downstream, depth)
	backward := graph.NewSet()
	for _, target := range seeds[1:] {
		if !forward.Has(target) {
			continue
		}
		out.Add(target)
		backward.Union(lineage.Related(m, target, lineage.Upstream))
	}
	for id := range forward {
		if backward.Has(id) {
			out.Add(id)
		}
	}
	return out
}
