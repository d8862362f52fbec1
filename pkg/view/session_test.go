package view

import (
	"math"
	"reflect"
	"testing"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

// runeSix sizes every rune at six units for hand-computable geometry.
type runeSix struct{}

func (runeSix) Width(text string, _ layout.Font) (float64, error) {
	return float64(6 * len([]rune(text))), nil
}

func baseOptions() layout.Options {
	return layout.Options{
		Measurer:      runeSix{},
		Font:          layout.Font{Size: 10},
		LineHeight:    10,
		PaddingX:      10,
		PaddingY:      5,
		HorizontalGap: 50,
		VerticalGap:   20,
		ChapterWidth:  200,
		NoteWidth:     200,
		NoteMaxLines:  3,
		Margin:        40,
	}
}

// viewTree builds Doc -> {Alpha -> {Beta, a note}, Gamma}.
func viewTree(t *testing.T) *outline.Tree {
	t.Helper()
	tr := outline.New("Doc")
	add := func(n outline.Node, parent string) {
		t.Helper()
		if err := tr.AddNode(n, parent); err != nil {
			t.Fatalf("AddNode(%s) error = %v", n.ID, err)
		}
	}
	add(outline.Node{ID: "c1", Title: "Alpha", Kind: outline.KindCustom}, outline.RootID)
	add(outline.Node{ID: "c2", Title: "Beta", Kind: outline.KindCustom}, "c1")
	add(outline.Node{ID: "n1", Title: "a note", Kind: outline.KindNote}, "c1")
	add(outline.Node{ID: "c3", Title: "Gamma", Kind: outline.KindCustom}, outline.RootID)
	return tr
}

func screenCenter(t *testing.T, s *Session, tree *outline.Tree, id string) Point {
	t.Helper()
	res, err := s.Layout(tree)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	n, ok := res.NodeByID(id)
	if !ok {
		t.Fatalf("node %s not in layout", id)
	}
	return s.ToScreen(Point{n.CenterX(), n.CenterY()})
}

func TestSessionLayoutCaching(t *testing.T) {
	tr := viewTree(t)
	s := NewSession(baseOptions())

	first, err := s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	again, err := s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if first != again {
		t.Error("unchanged inputs should return the cached result")
	}

	if err := s.ToggleCollapse(tr, "c1"); err != nil {
		t.Fatalf("ToggleCollapse() error = %v", err)
	}
	collapsed, err := s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if collapsed == first {
		t.Error("collapse change should invalidate the cache")
	}

	// Tree edits invalidate through the content fingerprint.
	if err := tr.AddNode(outline.Node{ID: "c4", Title: "Delta", Kind: outline.KindCustom}, outline.RootID); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	edited, err := s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if edited == collapsed {
		t.Error("tree edit should invalidate the cache")
	}
}

func TestSessionCollapseAnchor(t *testing.T) {
	tr := viewTree(t)
	s := NewSession(baseOptions())

	// Pin Alpha's center to an arbitrary screen point.
	center := screenCenter(t, s, tr, "c1")
	s.PanBy(400-center.X, 300-center.Y)

	if got := screenCenter(t, s, tr, "c1"); got.X != 400 || got.Y != 300 {
		t.Fatalf("pinned center = %v, want (400, 300)", got)
	}

	if err := s.ToggleCollapse(tr, "c1"); err != nil {
		t.Fatalf("ToggleCollapse() error = %v", err)
	}
	if !s.Collapsed("c1") {
		t.Fatal("c1 should be collapsed")
	}
	if got := screenCenter(t, s, tr, "c1"); math.Abs(got.X-400) > 1e-9 || math.Abs(got.Y-300) > 1e-9 {
		t.Errorf("center after collapse = %v, want (400, 300)", got)
	}

	if err := s.ToggleCollapse(tr, "c1"); err != nil {
		t.Fatalf("ToggleCollapse() error = %v", err)
	}
	if s.Collapsed("c1") {
		t.Fatal("c1 should be expanded again")
	}
	if got := screenCenter(t, s, tr, "c1"); math.Abs(got.X-400) > 1e-9 || math.Abs(got.Y-300) > 1e-9 {
		t.Errorf("center after expand = %v, want (400, 300)", got)
	}
}

func TestSessionNoteToggle(t *testing.T) {
	tr := outline.New("Doc")
	err := tr.AddNode(outline.Node{
		ID:    "n1",
		Title: "aaaa bbbb cccc dddd eeee ffff gggg",
		Kind:  outline.KindNote,
	}, outline.RootID)
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	opts := baseOptions()
	opts.NoteWidth = 80
	s := NewSession(opts)

	res, err := s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	n, _ := res.NodeByID("n1")
	clampedH := n.H
	if !n.Clamped {
		t.Fatal("note should start clamped")
	}

	center := screenCenter(t, s, tr, "n1")
	if err := s.ToggleNote(tr, "n1"); err != nil {
		t.Fatalf("ToggleNote() error = %v", err)
	}
	if !s.NoteExpanded("n1") {
		t.Fatal("n1 should be expanded")
	}

	res, err = s.Layout(tr)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	n, _ = res.NodeByID("n1")
	if n.Clamped || n.H <= clampedH {
		t.Errorf("expanded note H = %v clamped = %v, want taller and unclamped", n.H, n.Clamped)
	}
	if got := screenCenter(t, s, tr, "n1"); math.Abs(got.X-center.X) > 1e-9 || math.Abs(got.Y-center.Y) > 1e-9 {
		t.Errorf("center after expand = %v, want %v", got, center)
	}
}

func TestSessionZoomAt(t *testing.T) {
	tr := viewTree(t)
	s := NewSession(baseOptions())

	at := screenCenter(t, s, tr, "c1")
	if err := s.ZoomAt(tr, at, 2); err != nil {
		t.Fatalf("ZoomAt() error = %v", err)
	}
	if s.Zoom != 2 {
		t.Fatalf("Zoom = %v, want 2", s.Zoom)
	}
	if got := screenCenter(t, s, tr, "c1"); math.Abs(got.X-at.X) > 1e-9 || math.Abs(got.Y-at.Y) > 1e-9 {
		t.Errorf("anchored point moved to %v, want %v", got, at)
	}

	res, _ := s.Layout(tr)
	if res.FontSize != 20 {
		t.Errorf("FontSize = %v, want 20", res.FontSize)
	}
}

func TestSessionZoomClamp(t *testing.T) {
	tr := viewTree(t)
	s := NewSession(baseOptions())

	if err := s.ZoomAt(tr, Point{}, 1000); err != nil {
		t.Fatalf("ZoomAt() error = %v", err)
	}
	if s.Zoom != MaxZoom {
		t.Errorf("Zoom = %v, want clamped to %v", s.Zoom, MaxZoom)
	}
	if err := s.ZoomAt(tr, Point{}, 1e-9); err != nil {
		t.Fatalf("ZoomAt() error = %v", err)
	}
	if s.Zoom != MinZoom {
		t.Errorf("Zoom = %v, want clamped to %v", s.Zoom, MinZoom)
	}
}

func TestSessionRestore(t *testing.T) {
	s := NewSession(baseOptions())
	s.Restore([]string{"b", "a"}, []string{"n2"})

	if got := s.CollapsedIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("CollapsedIDs() = %v, want [a b]", got)
	}
	if got := s.ExpandedNoteIDs(); !reflect.DeepEqual(got, []string{"n2"}) {
		t.Errorf("ExpandedNoteIDs() = %v, want [n2]", got)
	}
	if !s.Collapsed("a") || s.Collapsed("c") {
		t.Error("Collapsed() should reflect the restored set")
	}
}

func TestSessionHitTest(t *testing.T) {
	tr := viewTree(t)
	s := NewSession(baseOptions())
	if _, ok := s.HitTest(1, 1); ok {
		t.Error("hit test before any layout should miss")
	}

	center := screenCenter(t, s, tr, "c3")
	if n, ok := s.HitTest(center.X, center.Y); !ok || n.ID != "c3" {
		t.Errorf("HitTest(center of c3) = %v, want c3", n)
	}

	s.PanBy(30, 20)
	if n, ok := s.HitTest(center.X+30, center.Y+20); !ok || n.ID != "c3" {
		t.Errorf("HitTest after pan = %v, want c3", n)
	}
}
