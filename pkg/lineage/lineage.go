package lineage

import (
	"slices"
	"strings"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Mode selects a lineage analysis.
type Mode string

const (
	ModeImpact     Mode = "impact"
	ModeDependency Mode = "dependency"
	ModePath       Mode = "path"
	ModeCritical   Mode = "critical"
)

// Modes lists every lineage mode in display order.
var Modes = []Mode{ModeImpact, ModeDependency, ModePath, ModeCritical}

// ParseMode converts a user-supplied name into a Mode (case-insensitive).
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Modes, m) {
		return "", errors.New(errors.ErrCodeInvalidMode,
			"invalid lineage mode: %q (must be one of: impact, dependency, path, critical)", name)
	}
	return m, nil
}

// Lineage returns the node set for the given analysis mode. The seed is
// always part of the result, even if it does not exist in the graph.
//
// Path mode is computed in one pass as the seed plus everything upstream and
// downstream of it. Every such node lies on some source→seed→sink path, and
// for a seed without incoming (outgoing) edges this reduces to the seed plus
// its downstream (upstream) set.
func Lineage(m *graph.Model, seed string, mode Mode) (graph.Set, error) {
	var out graph.Set
	switch mode {
	case ModeImpact:
		out = Related(m, seed, Downstream)
	case ModeDependency:
		out = Related(m, seed, Upstream)
	case ModePath:
		out = Related(m, seed, Both)
	case ModeCritical:
		out = graph.NewSet()
		for _, f := range Explain(m, seed) {
			out.Add(f.ID)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidMode,
			"invalid lineage mode: %q (must be one of: impact, dependency, path, critical)", mode)
	}
	out.Add(seed)
	return out, nil
}
