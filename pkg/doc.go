// Package pkg holds the libraries behind pipegraph, a toolkit for laying out,
// querying and rendering data pipeline graphs.
//
// # Overview
//
// A pipeline graph is a JSON document of typed nodes (inputs, transforms, ML
// stages, outputs) and directed edges. The packages are layered:
//
//  1. [graph] - Node, edge and graph types, JSON I/O, the validated Model
//  2. [layout] - Hierarchical, force, circular and grid placement
//  3. [lineage] - Impact, dependency, path and critical-node queries
//  4. [slice] - Filter and selection-based sub-graph extraction
//  5. [group] - Named, colored node groups with pluggable persistence
//  6. [engine] - Cached, coalesced execution of layouts and queries
//  7. [render] - DOT, SVG, PDF and PNG output
//  8. [api] - The HTTP server exposing the engine and group registry
//
// # Data Flow
//
//	graph.json
//	     ↓
//	[graph] (parse, normalize, build Model)
//	     ↓
//	[engine] ──→ [layout] / [lineage] / [slice]
//	     ↓
//	[render/dot] (DOT → SVG → PDF/PNG)
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("pipeline.json")
//
//	runner := engine.NewRunner(cache.NewNullCache(), nil, log.Default())
//	res, _ := runner.Layout(ctx, "cli", g, layout.StrategyHierarchical, layout.DefaultConfig())
//	g.Nodes = res.Nodes
//
//	impact, _ := runner.Lineage(ctx, g, "join", lineage.ModeImpact)
//	svg, _ := runner.Render(ctx, g, render.FormatSVG, dot.Options{Highlight: impact})
//
// # Supporting Packages
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [config] - TOML configuration for layout defaults and storage backends.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [observability] - Hook interfaces for engine, cache, group and HTTP events.
//
// [buildinfo] - Version information stamped at build time.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/layout
// [lineage]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/lineage
// [slice]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/slice
// [group]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/group
// [engine]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/engine
// [render]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/render/dot
// [api]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/api
// [cache]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pipegraph/pkg/buildinfo
package pkg
