package engine

import (
	"context"
	"time"

	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/lineage"
	"github.com/matzehuels/pipegraph/pkg/observability"
	"github.com/matzehuels/pipegraph/pkg/slice"
)

// Queries are cheap and run synchronously without caching. The Runner only
// adds logging and observability around them.

// Lineage returns the lineage set of seed for mode.
func (r *Runner) Lineage(ctx context.Context, g graph.Graph, seed string, mode lineage.Mode) (graph.Set, error) {
	start := time.Now()
	set, err := lineage.Lineage(graph.NewModel(g), seed, mode)
	if err != nil {
		return nil, err
	}
	r.observe(ctx, "lineage", string(mode), set.Len(), start)
	return set, nil
}

// Related returns the nodes reachable from seed in the given directions,
// bounded by depth edge steps (0 means unbounded).
func (r *Runner) Related(ctx context.Context, g graph.Graph, seed string, dir lineage.Direction, depth int) graph.Set {
	start := time.Now()
	set := lineage.RelatedWithin(graph.NewModel(g), seed, dir, depth)
	r.observe(ctx, "related", directionName(dir), set.Len(), start)
	return set
}

// Explain lists the critical nodes around seed with their reasons.
func (r *Runner) Explain(ctx context.Context, g graph.Graph, seed string) []lineage.Finding {
	start := time.Now()
	findings := lineage.Explain(graph.NewModel(g), seed)
	r.observe(ctx, "explain", string(lineage.ModeCritical), len(findings), start)
	return findings
}

// Slice extracts the sub-graph selected by opts.
func (r *Runner) Slice(ctx context.Context, g graph.Graph, opts slice.Options) (slice.Result, error) {
	start := time.Now()
	res, err := slice.Apply(g, opts)
	if err != nil {
		return slice.Result{}, err
	}
	mode, _ := slice.ParseMode(string(opts.Mode))
	r.observe(ctx, "slice", string(mode), len(res.Nodes), start)
	return res, nil
}

func (r *Runner) observe(ctx context.Context, kind, mode string, size int, start time.Time) {
	elapsed := time.Since(start)
	observability.Engine().OnQuery(ctx, kind, mode, size, elapsed)
	r.Logger.Debug("query", "kind", kind, "mode", mode, "size", size, "duration", elapsed)
}

func directionName(dir lineage.Direction) string {
	switch {
	case dir.Upstream && dir.Downstream:
		return "both"
	case dir.Upstream:
		return "upstream"
	case dir.Downstream:
		return "downstream"
	}
	return "none"
}
