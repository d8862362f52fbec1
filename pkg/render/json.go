package render

import (
	"encoding/json"

	"github.com/pagefold/marginalia/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title string
	style string
}

// WithJSONTitle records the document title in the JSON output.
func WithJSONTitle(t string) JSONOption { return func(r *jsonRenderer) { r.title = t } }

// WithJSONStyle records the style name (e.g. "light", "dark") in the
// JSON output for round-trip rendering.
func WithJSONStyle(s string) JSONOption { return func(r *jsonRenderer) { r.style = s } }

type jsonOutput struct {
	Title      string     `json:"title,omitempty"`
	Style      string     `json:"style,omitempty"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	FontSize   float64    `json:"font_size"`
	LineHeight float64    `json:"line_height"`
	PaddingX   float64    `json:"padding_x"`
	PaddingY   float64    `json:"padding_y"`
	Nodes      []jsonNode `json:"nodes"`
	Edges      []jsonEdge `json:"edges,omitempty"`
}

type jsonNode struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Color      string   `json:"color,omitempty"`
	Lines      []string `json:"lines"`
	SubLines   []string `json:"sub_lines,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Collapsed  bool     `json:"collapsed,omitempty"`
	ChildCount int      `json:"child_count,omitempty"`
	Clamped    bool     `json:"clamped,omitempty"`
}

type jsonEdge struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Path [8]float64 `json:"path"` // x1,y1, c1x,c1y, c2x,c2y, x2,y2
}

// RenderJSON exports the layout geometry as a pretty-printed JSON
// document. This is the interchange format for frontends that do their
// own drawing: every box's position, wrapped text, and connector curve
// is included, so no layout computation is needed on the other side.
func RenderJSON(res *layout.Result, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:      r.title,
		Style:      r.style,
		Width:      res.Width,
		Height:     res.Height,
		FontSize:   res.FontSize,
		LineHeight: res.LineHeight,
		PaddingX:   res.PaddingX,
		PaddingY:   res.PaddingY,
		Nodes:      make([]jsonNode, 0, len(res.Nodes)),
		Edges:      make([]jsonEdge, 0, len(res.Edges)),
	}

	for _, n := range res.Nodes {
		out.Nodes = append(out.Nodes, jsonNode{
			ID:         n.ID,
			Kind:       n.Kind.String(),
			Color:      n.Color,
			Lines:      n.Lines,
			SubLines:   n.SubLines,
			X:          n.X,
			Y:          n.Y,
			Width:      n.W,
			Height:     n.H,
			Collapsed:  n.Collapsed,
			ChildCount: n.ChildCount,
			Clamped:    n.Clamped,
		})
	}
	for _, e := range res.Edges {
		out.Edges = append(out.Edges, jsonEdge{
			From: e.From,
			To:   e.To,
			Path: [8]float64{e.X1, e.Y1, e.C1X, e.C1Y, e.C2X, e.C2Y, e.X2, e.Y2},
		})
	}

	return json.MarshalIndent(out, "", "  ")
}
