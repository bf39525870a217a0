// Package render turns laid-out pipeline graphs into files.
//
// The [dot] subpackage writes Graphviz DOT with every node pinned at its
// layout position and renders it to SVG in-process. PDF and PNG are
// converted from the SVG with the external rsvg-convert tool (from librsvg):
//
//	src := dot.ToDOT(nodes, edges, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.FromSVG(ctx, svg, render.FormatPDF, 1)
//
// [dot]: github.com/matzehuels/pipegraph/pkg/render/dot
package render
