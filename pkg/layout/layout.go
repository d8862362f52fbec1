package layout

import (
	"github.com/pagefold/marginalia/pkg/outline"
)

// Default layout metrics, in content units (SVG user units at zoom 1).
const (
	DefaultLineHeight    = 18.0
	DefaultPaddingX      = 12.0
	DefaultPaddingY      = 8.0
	DefaultHorizontalGap = 48.0
	DefaultVerticalGap   = 16.0
	DefaultChapterWidth  = 260.0
	DefaultNoteWidth     = 320.0
	DefaultNoteMaxLines  = 3
	DefaultMargin        = 40.0
	DefaultFontSize      = 13.0
)

// Edge curvature bounds: the horizontal control-point offset is half the
// horizontal distance, clamped to this range.
const (
	MinCurvature = 40.0
	MaxCurvature = 80.0
)

// Options controls a layout computation. The zero value is not usable -
// call [Options.SetDefaults] or start from [DefaultOptions].
type Options struct {
	// Collapsed hides the descendants of the listed nodes before any
	// sizing happens. The collapsed nodes themselves stay visible.
	Collapsed map[string]bool

	// ExpandedNotes lifts the line clamp for individual annotations.
	ExpandedNotes map[string]bool

	// Zoom scales the finished geometry uniformly. Values <= 0 become 1.
	Zoom float64

	// Measurer resolves text widths. Defaults to the built-in estimator.
	Measurer Measurer

	Font Font

	LineHeight    float64
	PaddingX      float64
	PaddingY      float64
	HorizontalGap float64
	VerticalGap   float64
	ChapterWidth  float64 // max box width for structural nodes
	NoteWidth     float64 // max box width for annotations
	NoteMaxLines  int     // clamp for unexpanded annotations
	Margin        float64 // canvas border around the content bounding box
}

// DefaultOptions returns the standard metrics at zoom 1.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills unset fields with the package defaults.
func (o *Options) SetDefaults() {
	if o.Zoom <= 0 {
		o.Zoom = 1
	}
	if o.Measurer == nil {
		o.Measurer = Memoized(RuneMeasurer{})
	}
	if o.Font.Size <= 0 {
		o.Font.Size = DefaultFontSize
	}
	if o.LineHeight <= 0 {
		o.LineHeight = DefaultLineHeight
	}
	if o.PaddingX <= 0 {
		o.PaddingX = DefaultPaddingX
	}
	if o.PaddingY <= 0 {
		o.PaddingY = DefaultPaddingY
	}
	if o.HorizontalGap <= 0 {
		o.HorizontalGap = DefaultHorizontalGap
	}
	if o.VerticalGap <= 0 {
		o.VerticalGap = DefaultVerticalGap
	}
	if o.ChapterWidth <= 0 {
		o.ChapterWidth = DefaultChapterWidth
	}
	if o.NoteWidth <= 0 {
		o.NoteWidth = DefaultNoteWidth
	}
	if o.NoteMaxLines <= 0 {
		o.NoteMaxLines = DefaultNoteMaxLines
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
}

// maxWidth returns the per-kind box width limit.
func (o *Options) maxWidth(kind outline.Kind) float64 {
	if kind == outline.KindNote {
		return o.NoteWidth
	}
	return o.ChapterWidth
}

// Node is one laid-out box with absolute geometry. Coordinates are final:
// zoom is already applied and the content bounding box sits at the canvas
// margin.
type Node struct {
	ID         string
	Kind       outline.Kind
	Color      string
	Lines      []string // wrapped display lines
	SubLines   []string // wrapped translation lines, under the text
	X, Y       float64
	W, H       float64
	Collapsed  bool // children exist but are hidden
	ChildCount int  // direct children, visible or hidden
	Clamped    bool // note text was cut at the line limit
}

// CenterX returns the horizontal center of the box.
func (n Node) CenterX() float64 { return n.X + n.W/2 }

// CenterY returns the vertical center of the box.
func (n Node) CenterY() float64 { return n.Y + n.H/2 }

// Right returns the box's right border.
func (n Node) Right() float64 { return n.X + n.W }

// Bottom returns the box's bottom border.
func (n Node) Bottom() float64 { return n.Y + n.H }

// Contains reports whether the point lies inside the box.
func (n Node) Contains(x, y float64) bool {
	return x >= n.X && x <= n.X+n.W && y >= n.Y && y <= n.Y+n.H
}

// Edge is a cubic Bézier connector from a parent's right-center to a
// child's left-center.
type Edge struct {
	From, To string
	X1, Y1   float64 // start (parent right-center)
	C1X, C1Y float64 // first control point
	C2X, C2Y float64 // second control point
	X2, Y2   float64 // end (child left-center)
}

// Result is a finished layout: flat nodes in depth-first display order,
// their connectors, and the canvas extent. FontSize, LineHeight and the
// paddings are the zoomed metrics a renderer should draw the text with.
type Result struct {
	Nodes      []Node
	Edges      []Edge
	Width      float64
	Height     float64
	FontSize   float64
	LineHeight float64
	PaddingX   float64
	PaddingY   float64

	index map[string]int
}

// NodeByID returns the laid-out node with the given ID.
func (r *Result) NodeByID(id string) (*Node, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.Nodes[i], true
}

// HitTest returns the topmost node containing the point, in canvas
// coordinates. Boxes in this layout never overlap, so the first hit wins.
func (r *Result) HitTest(x, y float64) (*Node, bool) {
	for i := range r.Nodes {
		if r.Nodes[i].Contains(x, y) {
			return &r.Nodes[i], true
		}
	}
	return nil, false
}
