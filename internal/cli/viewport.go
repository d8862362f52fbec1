package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/view"
)

// =============================================================================
// Character Grid
// =============================================================================

// cellStyle selects the lipgloss style a grid cell is painted with.
type cellStyle int8

const (
	cellPlain cellStyle = iota
	cellDim
	cellChapter
	cellCustom
	cellNote
	cellRoot
	cellSelected
	cellDrop
	cellDrag
)

var gridStyles = [...]lipgloss.Style{
	cellPlain:    lipgloss.NewStyle(),
	cellDim:      lipgloss.NewStyle().Foreground(colorDim),
	cellChapter:  lipgloss.NewStyle().Foreground(colorWhite),
	cellCustom:   lipgloss.NewStyle().Foreground(colorCyan),
	cellNote:     lipgloss.NewStyle().Foreground(colorYellow),
	cellRoot:     lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	cellSelected: lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
	cellDrop:     lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
	cellDrag:     lipgloss.NewStyle().Foreground(colorGray),
}

// cellGrid is a fixed-size character canvas the mind map is stamped onto.
type cellGrid struct {
	w, h   int
	runes  []rune
	styles []cellStyle
}

func newCellGrid(w, h int) *cellGrid {
	g := &cellGrid{
		w:      w,
		h:      h,
		runes:  make([]rune, w*h),
		styles: make([]cellStyle, w*h),
	}
	for i := range g.runes {
		g.runes[i] = ' '
	}
	return g
}

func (g *cellGrid) set(x, y int, r rune, s cellStyle) {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return
	}
	i := y*g.w + x
	g.runes[i] = r
	g.styles[i] = s
}

// hline draws a horizontal run of r from x1 to x2 inclusive.
func (g *cellGrid) hline(x1, x2, y int, r rune, s cellStyle) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		g.set(x, y, r, s)
	}
}

// box draws a bordered rectangle; the interior is cleared.
func (g *cellGrid) box(x, y, w, h int, s cellStyle) {
	if w < 2 || h < 2 {
		return
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			var r rune
			switch {
			case dy == 0 && dx == 0:
				r = '┌'
			case dy == 0 && dx == w-1:
				r = '┐'
			case dy == h-1 && dx == 0:
				r = '└'
			case dy == h-1 && dx == w-1:
				r = '┘'
			case dy == 0 || dy == h-1:
				r = '─'
			case dx == 0 || dx == w-1:
				r = '│'
			default:
				r = ' '
			}
			g.set(x+dx, y+dy, r, s)
		}
	}
}

// text stamps a string starting at (x, y), truncated to max runes.
func (g *cellGrid) text(x, y int, text string, max int, s cellStyle) {
	if max <= 0 {
		return
	}
	runes := []rune(text)
	if len(runes) > max {
		if max > 1 {
			runes = append(runes[:max-1], '…')
		} else {
			runes = runes[:max]
		}
	}
	for i, r := range runes {
		g.set(x+i, y, r, s)
	}
}

// String assembles the grid into styled terminal lines.
func (g *cellGrid) String() string {
	var b strings.Builder
	for y := 0; y < g.h; y++ {
		row := y * g.w
		x := 0
		for x < g.w {
			s := g.styles[row+x]
			start := x
			for x < g.w && g.styles[row+x] == s {
				x++
			}
			run := string(g.runes[row+start : row+x])
			if s == cellPlain {
				b.WriteString(run)
			} else {
				b.WriteString(gridStyles[s].Render(run))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// =============================================================================
// View
// =============================================================================

func (m viewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	res, err := m.sess.Layout(m.tree)
	if err != nil {
		return StyleWarning.Render("layout failed: "+err.Error()) + "\n" + StyleDim.Render("q quit")
	}

	grid := newCellGrid(m.width, m.gridHeight())
	m.drawEdges(grid, res)
	for i := range res.Nodes {
		m.drawNode(grid, &res.Nodes[i])
	}
	m.drawDragPreview(grid, res)

	return grid.String() + m.statusLine(res) + "\n" + m.helpLine()
}

// toCell converts a canvas point to grid coordinates through the pan.
func (m viewModel) toCell(x, y float64) (int, int) {
	p := m.sess.ToScreen(view.Point{X: x, Y: y})
	return int(math.Round(p.X / cellW)), int(math.Round(p.Y / cellH))
}

func (m viewModel) drawEdges(g *cellGrid, res *layout.Result) {
	for _, e := range res.Edges {
		x1, _ := m.toCell(e.X1, e.Y1)
		x2, y2 := m.toCell(e.X2, e.Y2)
		if x2 > x1 {
			g.hline(x1, x2-1, y2, '─', cellDim)
		}
	}
}

func (m viewModel) drawNode(g *cellGrid, n *layout.Node) {
	x, y := m.toCell(n.X, n.Y)
	w := int(math.Round(n.W / cellW))
	h := int(math.Round(n.H / cellH))
	if w < 4 {
		w = 4
	}
	if h < 3 {
		h = 3
	}

	s := m.nodeStyle(n)
	g.box(x, y, w, h, s)

	textStyle := s
	if s == cellSelected || s == cellDrop {
		textStyle = cellPlain
	}
	inner := w - 4
	row := y + 1
	for _, line := range n.Lines {
		if row >= y+h-1 {
			break
		}
		g.text(x+2, row, line, inner, textStyle)
		row++
	}
	for _, line := range n.SubLines {
		if row >= y+h-1 {
			break
		}
		g.text(x+2, row, line, inner, cellDim)
		row++
	}

	if n.Collapsed {
		g.text(x+w, y+h/2, fmt.Sprintf("(%d)", n.ChildCount), 6, s)
	}
}

func (m viewModel) nodeStyle(n *layout.Node) cellStyle {
	if target, ok := m.ctrl.DropTarget(); ok && target == n.ID {
		return cellDrop
	}
	if n.ID == m.selectedID {
		return cellSelected
	}
	switch n.Kind {
	case outline.KindRoot:
		return cellRoot
	case outline.KindCustom:
		return cellCustom
	case outline.KindNote:
		return cellNote
	default:
		return cellChapter
	}
}

// drawDragPreview stamps the floating outline of the node being dragged.
func (m viewModel) drawDragPreview(g *cellGrid, res *layout.Result) {
	id, pos, ok := m.ctrl.DragPreview()
	if !ok {
		return
	}
	n, ok := res.NodeByID(id)
	if !ok {
		return
	}

	x := int(math.Round(pos.X / cellW))
	y := int(math.Round(pos.Y / cellH))
	w := int(math.Round(n.W / cellW))
	h := int(math.Round(n.H / cellH))
	if w < 4 {
		w = 4
	}
	if h < 3 {
		h = 3
	}

	g.box(x, y, w, h, cellDrag)
	if len(n.Lines) > 0 {
		g.text(x+2, y+1, n.Lines[0], w-4, cellDrag)
	}
}

func (m viewModel) statusLine(res *layout.Result) string {
	parts := []string{
		StyleTitle.Render(m.doc.Title),
		StyleDim.Render(fmt.Sprintf("zoom %d%%", int(math.Round(m.sess.Zoom*100)))),
		StyleDim.Render(fmt.Sprintf("%d nodes", len(res.Nodes))),
	}
	if sel, ok := m.tree.Node(m.selectedID); ok {
		parts = append(parts, StyleHighlight.Render(sel.Title))
	}
	if m.dirty {
		parts = append(parts, StyleWarning.Render("modified"))
	}
	if m.status != "" {
		parts = append(parts, StyleDim.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func (m viewModel) helpLine() string {
	if m.inputMode {
		return m.input.View()
	}
	return StyleDim.Render("tab select · enter collapse · e expand note · a add · P promote · D delete · hjkl pan · +/- zoom · s save · q quit")
}
