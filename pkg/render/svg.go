package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

const fontStack = `-apple-system, 'Segoe UI', Helvetica, Arial, sans-serif`

// Corner radii per box kind, in unzoomed canvas units.
const (
	rootRadius    = 10.0
	chapterRadius = 6.0
	noteRadius    = 3.0
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style       Style
	title       string
	transparent bool
}

// WithStyle sets the color palette. Defaults to [Light].
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithTitle adds an SVG <title> element naming the document.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithTransparent drops the background rectangle so the drawing can sit
// on any surface.
func WithTransparent() SVGOption { return func(r *svgRenderer) { r.transparent = true } }

// RenderSVG draws the laid-out mind map as a self-contained SVG document.
// Edges render first so boxes cover the connector joins; text renders
// last so it stays on top.
func RenderSVG(res *layout.Result, opts ...SVGOption) []byte {
	r := svgRenderer{style: Light()}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		res.Width, res.Height, res.Width, res.Height, fontStack)

	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	if !r.transparent {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.style.Background)
	}

	for _, e := range res.Edges {
		renderEdge(&buf, r.style, e)
	}
	for _, n := range res.Nodes {
		renderBox(&buf, r.style, n)
	}
	for _, n := range res.Nodes {
		renderText(&buf, r.style, n, res)
		if n.Collapsed {
			renderBadge(&buf, r.style, n, res)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderEdge(buf *bytes.Buffer, s Style, e layout.Edge) {
	fmt.Fprintf(buf, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
		e.X1, e.Y1, e.C1X, e.C1Y, e.C2X, e.C2Y, e.X2, e.Y2, s.Edge)
}

func renderBox(buf *bytes.Buffer, s Style, n layout.Node) {
	fmt.Fprintf(buf, `  <rect id="node-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		EscapeXML(n.ID), n.X, n.Y, n.W, n.H, cornerRadius(n.Kind), s.fill(n), s.stroke(n))
}

func cornerRadius(kind outline.Kind) float64 {
	switch kind {
	case outline.KindRoot:
		return rootRadius
	case outline.KindNote:
		return noteRadius
	default:
		return chapterRadius
	}
}

// renderText writes one <text> element per wrapped line, vertically
// centered in the box. Translation lines continue the flow in the muted
// color, italicized.
func renderText(buf *bytes.Buffer, s Style, n layout.Node, res *layout.Result) {
	total := len(n.Lines) + len(n.SubLines)
	if total == 0 {
		return
	}

	top := n.Y + (n.H-float64(total)*res.LineHeight)/2
	x := n.X + res.PaddingX
	weight := ""
	if n.Kind == outline.KindRoot {
		weight = ` font-weight="bold"`
	}

	for i, line := range n.Lines {
		y := top + (float64(i)+0.5)*res.LineHeight
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" fill="%s" dominant-baseline="central"%s>%s</text>`+"\n",
			x, y, res.FontSize, s.textColor(n), weight, EscapeXML(line))
	}
	for i, line := range n.SubLines {
		y := top + (float64(len(n.Lines)+i)+0.5)*res.LineHeight
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" fill="%s" font-style="italic" dominant-baseline="central">%s</text>`+"\n",
			x, y, res.FontSize, s.SubText, EscapeXML(line))
	}
}

// renderBadge draws the hidden child count on a collapsed node's right
// edge.
func renderBadge(buf *bytes.Buffer, s Style, n layout.Node, res *layout.Result) {
	r := res.FontSize * 0.65
	cx, cy := n.Right(), n.CenterY()
	fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", cx, cy, r, s.Badge)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%d</text>`+"\n",
		cx, cy, res.FontSize*0.8, s.BadgeText, n.ChildCount)
}

// EscapeXML escapes a string for embedding in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
