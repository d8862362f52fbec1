package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Compute lays the visible part of the tree out as left-to-right boxes
// with cubic connectors. The computation is pure and deterministic:
// identical trees, collapse sets, zoom, and measurer produce identical
// results.
//
// On any internal failure - a measurer error, a corrupt tree, even a
// panic - Compute returns a nil Result and an error. Hosts render nothing
// for a nil layout and stay alive; nothing in here is fatal.
func Compute(t *outline.Tree, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.New(errors.ErrCodeInternal, "layout panic: %v", r)
		}
	}()

	if t == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout requires a tree")
	}
	opts.SetDefaults()

	e := &engine{tree: t, opts: &opts, nodes: make(map[string]*workNode)}
	if err := e.collect(outline.RootID); err != nil {
		return nil, err
	}
	e.measure(outline.RootID)
	e.position(outline.RootID, 0, 0)
	return e.finish(), nil
}

// workNode carries per-node scratch state across the layout passes.
type workNode struct {
	id         string
	kind       outline.Kind
	color      string
	lines      []string
	subLines   []string
	w, h       float64
	subtreeH   float64
	x, y       float64
	children   []string
	collapsed  bool
	childCount int
	clamped    bool
	order      int // position in depth-first display order
}

type engine struct {
	tree  *outline.Tree
	opts  *Options
	nodes map[string]*workNode
	count int
}

// collect walks the visible tree, sizing each node as it goes. Collapse
// is applied here: a collapsed node keeps its box but loses its subtree
// before any geometry exists.
func (e *engine) collect(id string) error {
	n, ok := e.tree.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "tree references missing node %s", id)
	}

	kids := e.tree.Children(id)
	wn := &workNode{
		id:         id,
		kind:       n.Kind,
		color:      n.Color,
		collapsed:  e.opts.Collapsed[id] && len(kids) > 0,
		childCount: len(kids),
		order:      e.count,
	}
	e.count++
	e.nodes[id] = wn

	if err := e.size(wn, n); err != nil {
		return err
	}

	if wn.collapsed {
		return nil
	}
	for _, c := range kids {
		if err := e.collect(c); err != nil {
			return err
		}
		wn.children = append(wn.children, c)
	}
	return nil
}

// size wraps the node's text and derives its box dimensions:
// width = min(maxWidth, longest line + horizontal padding), height =
// line count times line height plus vertical padding, with the
// translation block stacked underneath.
func (e *engine) size(wn *workNode, n *outline.Node) error {
	o := e.opts
	maxW := o.maxWidth(n.Kind)
	contentW := maxW - 2*o.PaddingX

	lines, err := wrapText(n.Title, contentW, o.Measurer, o.Font)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMeasurement, err, "measure %s", wn.id)
	}
	if n.Kind == outline.KindNote && !o.ExpandedNotes[wn.id] {
		lines, wn.clamped = clampLines(lines, o.NoteMaxLines)
	}
	wn.lines = lines

	if n.Translation != "" {
		sub, err := wrapText(n.Translation, contentW, o.Measurer, o.Font)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMeasurement, err, "measure %s", wn.id)
		}
		if n.Kind == outline.KindNote && !o.ExpandedNotes[wn.id] {
			sub, _ = clampLines(sub, o.NoteMaxLines)
		}
		wn.subLines = sub
	}

	longest := 0.0
	for _, line := range append(append([]string{}, wn.lines...), wn.subLines...) {
		w, err := o.Measurer.Width(line, o.Font)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMeasurement, err, "measure %s", wn.id)
		}
		longest = math.Max(longest, w)
	}

	wn.w = math.Min(maxW, longest+2*o.PaddingX)
	wn.h = float64(len(wn.lines)+len(wn.subLines))*o.LineHeight + 2*o.PaddingY
	return nil
}

// measure computes subtree heights bottom-up: a leaf's band is its own
// box; an internal node's band is the larger of its own box and its
// children's stacked bands.
func (e *engine) measure(id string) float64 {
	wn := e.nodes[id]
	if len(wn.children) == 0 {
		wn.subtreeH = wn.h
		return wn.subtreeH
	}
	sum := 0.0
	for i, c := range wn.children {
		if i > 0 {
			sum += e.opts.VerticalGap
		}
		sum += e.measure(c)
	}
	wn.subtreeH = math.Max(wn.h, sum)
	return wn.subtreeH
}

// position assigns absolute coordinates depth-first. Children sit one
// horizontal gap right of the parent's box, stacked into vertical bands;
// each node centers on the union of its children's bands, while a leaf
// sits at the top of its own band.
func (e *engine) position(id string, x, bandTop float64) {
	wn := e.nodes[id]
	wn.x = x

	if len(wn.children) == 0 {
		wn.y = bandTop
		return
	}

	stacked := 0.0
	for i, c := range wn.children {
		if i > 0 {
			stacked += e.opts.VerticalGap
		}
		stacked += e.nodes[c].subtreeH
	}

	childTop := bandTop + (wn.subtreeH-stacked)/2
	childX := x + wn.w + e.opts.HorizontalGap
	cursor := childTop
	for _, c := range wn.children {
		e.position(c, childX, cursor)
		cursor += e.nodes[c].subtreeH + e.opts.VerticalGap
	}

	wn.y = childTop + (stacked-wn.h)/2
}

// finish translates the content bounding box to the canvas margin,
// applies zoom, and assembles the flat result.
func (e *engine) finish() *Result {
	o := e.opts

	ordered := make([]*workNode, 0, len(e.nodes))
	for _, wn := range e.nodes {
		ordered = append(ordered, wn)
	}
	slices.SortFunc(ordered, func(a, b *workNode) int { return cmp.Compare(a.order, b.order) })

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, wn := range ordered {
		minX = math.Min(minX, wn.x)
		minY = math.Min(minY, wn.y)
		maxX = math.Max(maxX, wn.x+wn.w)
		maxY = math.Max(maxY, wn.y+wn.h)
	}
	if len(ordered) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	dx, dy := o.Margin-minX, o.Margin-minY
	z := o.Zoom

	res := &Result{
		Nodes:      make([]Node, len(ordered)),
		Width:      (maxX - minX + 2*o.Margin) * z,
		Height:     (maxY - minY + 2*o.Margin) * z,
		FontSize:   o.Font.Size * z,
		LineHeight: o.LineHeight * z,
		PaddingX:   o.PaddingX * z,
		PaddingY:   o.PaddingY * z,
		index:      make(map[string]int, len(ordered)),
	}

	for i, wn := range ordered {
		res.Nodes[i] = Node{
			ID:         wn.id,
			Kind:       wn.kind,
			Color:      wn.color,
			Lines:      wn.lines,
			SubLines:   wn.subLines,
			X:          wn.x + dx,
			Y:          wn.y + dy,
			W:          wn.w,
			H:          wn.h,
			Collapsed:  wn.collapsed,
			ChildCount: wn.childCount,
			Clamped:    wn.clamped,
		}
		res.index[wn.id] = i
	}

	for _, wn := range ordered {
		parent, _ := res.NodeByID(wn.id)
		for _, c := range wn.children {
			child, ok := res.NodeByID(c)
			if !ok {
				continue
			}
			res.Edges = append(res.Edges, connect(parent, child))
		}
	}

	// Zoom scales the finished geometry as one affine map, so a zoomed
	// layout is exactly the unzoomed layout magnified.
	if z != 1 {
		for i := range res.Nodes {
			n := &res.Nodes[i]
			n.X, n.Y, n.W, n.H = n.X*z, n.Y*z, n.W*z, n.H*z
		}
		for i := range res.Edges {
			ed := &res.Edges[i]
			ed.X1, ed.Y1 = ed.X1*z, ed.Y1*z
			ed.C1X, ed.C1Y = ed.C1X*z, ed.C1Y*z
			ed.C2X, ed.C2Y = ed.C2X*z, ed.C2Y*z
			ed.X2, ed.Y2 = ed.X2*z, ed.Y2*z
		}
	}
	return res
}

// connect builds the cubic connector between a parent and child box. The
// control points push horizontally by half the gap, clamped so short hops
// still curve and long hops do not balloon.
func connect(parent, child *Node) Edge {
	x1, y1 := parent.Right(), parent.CenterY()
	x2, y2 := child.X, child.CenterY()
	off := clamp(0.5*(x2-x1), MinCurvature, MaxCurvature)
	return Edge{
		From: parent.ID, To: child.ID,
		X1: x1, Y1: y1,
		C1X: x1 + off, C1Y: y1,
		C2X: x2 - off, C2Y: y2,
		X2: x2, Y2: y2,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
