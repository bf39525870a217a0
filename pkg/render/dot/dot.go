// Package dot exports laid-out pipeline graphs as Graphviz DOT and renders
// them with go-graphviz.
//
// Nodes that carry a position are pinned there (neato with "!" positions),
// so the picture matches the layout the engine computed. Nodes without a
// position are left for neato to place.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/layout"
	"github.com/matzehuels/pipegraph/pkg/render"
)

const (
	defaultFill     = "#ffffff"
	highlightStroke = "#1f6feb"
	dimmedStroke    = "#b0b0b0"

	// pointsPerInch converts canvas pixels (treated as points) to the
	// inches Graphviz expects for node sizes.
	pointsPerInch = 72.0
)

// Options configures DOT generation.
type Options struct {
	// Highlight marks nodes to emphasize. When non-empty, every other node
	// and edge is drawn dimmed.
	Highlight graph.Set

	// GroupColors maps group IDs to fill colors (#rgb, #rrggbb or
	// hsl(h, s%, l%)). A node is filled with the color of its first group
	// found here.
	GroupColors map[string]string

	// Title is drawn above the graph.
	Title string

	// Detailed adds the node type and tags to labels.
	Detailed bool

	// NodeWidth and NodeHeight size the node boxes in canvas pixels.
	// Zero selects the layout defaults.
	NodeWidth  float64
	NodeHeight float64
}

// ToDOT converts nodes and edges to Graphviz DOT. Edges whose endpoints are
// not among nodes are skipped.
func ToDOT(nodes []graph.Node, edges []graph.Edge, opts Options) string {
	w, h := opts.NodeWidth, opts.NodeHeight
	if w <= 0 {
		w = layout.DefaultNodeWidth
	}
	if h <= 0 {
		h = layout.DefaultNodeHeight
	}
	dimming := opts.Highlight.Len() > 0

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n  fontsize=28;\n", opts.Title)
	}
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fixedsize=true, width=%s, height=%s, fontsize=14];\n",
		num(w/pointsPerInch), num(h/pointsPerInch))
	buf.WriteString("\n")

	known := make(graph.Set, len(nodes))
	for _, n := range nodes {
		if known.Has(n.ID) {
			continue
		}
		known.Add(n.ID)
		attrs := nodeAttrs(n, opts, dimming, w, h)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !known.Has(e.Source) || !known.Has(e.Target) {
			continue
		}
		attrs := edgeAttrs(e, opts, dimming)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, opts Options, dimming bool, w, h float64) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label(n, opts.Detailed)),
		fmt.Sprintf("fillcolor=%q", fill(n, opts.GroupColors)),
	}
	if n.Position != nil {
		// Positions are top-left corners on a y-down canvas.
		x := n.Position.X + w/2
		y := -(n.Position.Y + h/2)
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(y)))
	}
	switch {
	case opts.Highlight.Has(n.ID):
		attrs = append(attrs, "penwidth=3", fmt.Sprintf("color=%q", highlightStroke))
	case dimming:
		attrs = append(attrs, fmt.Sprintf("color=%q", dimmedStroke), fmt.Sprintf("fontcolor=%q", dimmedStroke))
	}
	return attrs
}

func edgeAttrs(e graph.Edge, opts Options, dimming bool) []string {
	var attrs []string
	if e.Data.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Data.Label))
	}
	if e.Data.TransferType == graph.TransferRealtime {
		attrs = append(attrs, "style=dashed")
	}
	if dimming {
		if opts.Highlight.Has(e.Source) && opts.Highlight.Has(e.Target) {
			attrs = append(attrs, "penwidth=2", fmt.Sprintf("color=%q", highlightStroke))
		} else {
			attrs = append(attrs, fmt.Sprintf("color=%q", dimmedStroke))
		}
	}
	return attrs
}

func label(n graph.Node, detailed bool) string {
	if !detailed {
		return n.DisplayLabel()
	}
	parts := []string{n.DisplayLabel()}
	if n.Type != "" {
		parts = append(parts, string(n.Type))
	}
	if len(n.Data.Tags) > 0 {
		parts = append(parts, strings.Join(n.Data.Tags, ", "))
	}
	return strings.Join(parts, "\n")
}

func fill(n graph.Node, colors map[string]string) string {
	for _, id := range n.Groups() {
		if c, ok := Color(colors[id]); ok {
			return c
		}
	}
	return defaultFill
}

var hslRe = regexp.MustCompile(`^hsl\(\s*([0-9.]+)\s*,\s*([0-9.]+)%\s*,\s*([0-9.]+)%\s*\)$`)

// Color converts a group color to the #rrggbb form Graphviz understands.
func Color(c string) (string, bool) {
	if c == "" {
		return "", false
	}
	if m := hslRe.FindStringSubmatch(c); m != nil {
		hue, _ := strconv.ParseFloat(m[1], 64)
		sat, _ := strconv.ParseFloat(m[2], 64)
		light, _ := strconv.ParseFloat(m[3], 64)
		return colorful.Hsl(hue, sat/100, light/100).Clamped().Hex(), true
	}
	parsed, err := colorful.Hex(c)
	if err != nil {
		return "", false
	}
	return parsed.Hex(), true
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders DOT source to SVG with neato, honoring pinned positions.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed pt size with a scalable
// viewBox of the same dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Render produces the graph in the given format (see render.Formats).
func Render(ctx context.Context, nodes []graph.Node, edges []graph.Edge, format string, opts Options) ([]byte, error) {
	format, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	src := ToDOT(nodes, edges, opts)
	if format == render.FormatDOT {
		return []byte(src), nil
	}

	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	if format == render.FormatSVG {
		return svg, nil
	}
	return render.FromSVG(ctx, svg, format, 2)
}
