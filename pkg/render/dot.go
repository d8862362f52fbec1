package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/pagefold/marginalia/pkg/outline"
)

// DOT node labels longer than this are cut with a ".." marker.
const dotLabelLimit = 48

// DOTOptions configures node-link diagram generation.
type DOTOptions struct {
	// Detailed includes anchor positions and order keys in node labels.
	// When false, only the title is shown.
	Detailed bool
}

// ToDOT converts an outline tree to Graphviz DOT format for node-link
// visualization. The resulting DOT string can be rendered using
// [GraphvizSVG], [GraphvizPDF], or [GraphvizPNG].
//
// Notes render with dashed outlines and grey fill to distinguish them
// from document structure.
func ToDOT(t *outline.Tree, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph outline {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	var edges []string
	t.Walk(func(n *outline.Node, depth int) bool {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, dotAttrs(n, opts.Detailed))
		for _, c := range t.Children(n.ID) {
			edges = append(edges, fmt.Sprintf("  %q -> %q;", n.ID, c))
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e + "\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotAttrs(n *outline.Node, detailed bool) string {
	label := truncateLabel(n.Title, dotLabelLimit)
	if detailed {
		if !n.Anchor.IsZero() && n.Anchor.PageIndex != nil {
			label += fmt.Sprintf("\npage %d", *n.Anchor.PageIndex+1)
		}
		if n.Order != nil {
			label += fmt.Sprintf("\norder %g", *n.Order)
		}
	}

	attrs := fmt.Sprintf("label=%q", label)
	switch n.Kind {
	case outline.KindRoot:
		attrs += `, style="rounded,filled,bold", fillcolor=black, fontcolor=white`
	case outline.KindNote:
		attrs += `, style="rounded,filled,dashed", fillcolor=lightgrey`
	}
	return attrs
}

func truncateLabel(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-2]) + ".."
}

// GraphvizSVG renders a DOT graph to SVG using Graphviz. Returns SVG
// bytes ready for display or further conversion with [ToPDF] or [ToPNG].
func GraphvizSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
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

// normalizeViewBox rewrites Graphviz's opening svg tag so the viewBox
// starts at the origin and the root element carries explicit pixel
// dimensions. rsvg-convert sizes its output from these.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// GraphvizPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func GraphvizPDF(dot string) ([]byte, error) {
	svg, err := GraphvizSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// GraphvizPNG renders a DOT graph as PNG via SVG conversion.
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI
// displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func GraphvizPNG(dot string, scale float64) ([]byte, error) {
	svg, err := GraphvizSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
