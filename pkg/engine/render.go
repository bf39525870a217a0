package engine

import (
	"context"
	"slices"

	"github.com/matzehuels/pipegraph/pkg/cache"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/observability"
	"github.com/matzehuels/pipegraph/pkg/render"
	"github.com/matzehuels/pipegraph/pkg/render/dot"
)

// Render is like [Runner.RenderWithCacheInfo] without the cache hit flag.
func (r *Runner) Render(ctx context.Context, g graph.Graph, format string, opts dot.Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, g, format, opts)
	return data, err
}

// RenderWithCacheInfo renders a laid-out graph, or loads the artifact from
// the cache, and reports whether it came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g graph.Graph, format string, opts dot.Options) ([]byte, bool, error) {
	format, err := render.ParseFormat(format)
	if err != nil {
		return nil, false, err
	}

	graphHash, err := cache.GraphHash(g)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RenderKey(graphHash, cache.RenderKeyOpts{
		Format:    format,
		Highlight: opts.Highlight.Sorted(),
		Colors:    opts.GroupColors,
		Title:     opts.Title,
		Detailed:  opts.Detailed,
		NodeSize:  [2]float64{opts.NodeWidth, opts.NodeHeight},
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	data, err := dot.Render(ctx, g.Nodes, g.Edges, format, opts)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Info("rendered graph", "format", format, "bytes", len(data))

	if err := r.Cache.Set(ctx, key, slices.Clone(data), cache.TTLArtifact); err != nil {
		r.Logger.Warn("render cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}
