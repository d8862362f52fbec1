package view

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Zoom bounds for interactive zooming.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// Point is a 2D coordinate, in screen or canvas units depending on
// context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session is the explicit view state for one open document: which
// subtrees are collapsed, which notes are expanded, and where the canvas
// sits on screen. It also caches the last layout, keyed by a fingerprint
// of everything that feeds the computation, so redundant recomputes are
// skipped.
//
// Screen and canvas relate by a pure translation: the layout already
// carries the zoom, so screen = canvas + pan.
//
// A Session is single-threaded state, like the tree it views.
type Session struct {
	Pan  Point
	Zoom float64

	base      layout.Options
	collapsed map[string]bool
	expanded  map[string]bool

	key    string
	cached *layout.Result
	err    error
}

// NewSession creates a session at zoom 1 with no collapsed nodes. The
// options provide the layout metrics and measurer; their Collapsed,
// ExpandedNotes, and Zoom fields are owned by the session and overwritten
// on every computation.
func NewSession(base layout.Options) *Session {
	base.SetDefaults()
	return &Session{
		Zoom:      1,
		base:      base,
		collapsed: make(map[string]bool),
		expanded:  make(map[string]bool),
	}
}

// Collapsed reports whether the node's subtree is hidden.
func (s *Session) Collapsed(id string) bool { return s.collapsed[id] }

// NoteExpanded reports whether the note's line clamp is lifted.
func (s *Session) NoteExpanded(id string) bool { return s.expanded[id] }

// CollapsedIDs returns the collapse set in sorted order.
func (s *Session) CollapsedIDs() []string {
	return slices.Sorted(maps.Keys(s.collapsed))
}

// ExpandedNoteIDs returns the expanded-note set in sorted order.
func (s *Session) ExpandedNoteIDs() []string {
	return slices.Sorted(maps.Keys(s.expanded))
}

// Restore replaces the collapse and expanded-note sets, for loading a
// persisted view state.
func (s *Session) Restore(collapsed, expanded []string) {
	s.collapsed = make(map[string]bool, len(collapsed))
	for _, id := range collapsed {
		s.collapsed[id] = true
	}
	s.expanded = make(map[string]bool, len(expanded))
	for _, id := range expanded {
		s.expanded[id] = true
	}
}

// Layout returns the geometry for the tree under the session's view
// state. The result is cached: recomputation happens only when the tree
// content, the collapse or expanded sets, the zoom, or the font changed
// since the last call. A layout failure is cached the same way and
// returned as (nil, error) until an input changes.
func (s *Session) Layout(tree *outline.Tree) (*layout.Result, error) {
	key := s.layoutKey(tree)
	if key == s.key {
		return s.cached, s.err
	}

	opts := s.base
	opts.Collapsed = s.collapsed
	opts.ExpandedNotes = s.expanded
	opts.Zoom = s.Zoom

	s.cached, s.err = layout.Compute(tree, opts)
	s.key = key
	return s.cached, s.err
}

// layoutKey fingerprints every input the layout depends on.
func (s *Session) layoutKey(tree *outline.Tree) string {
	treeFP := ""
	if tree != nil {
		treeFP = tree.Fingerprint()
	}
	parts, _ := json.Marshal([]any{
		treeFP,
		slices.Sorted(maps.Keys(s.collapsed)),
		slices.Sorted(maps.Keys(s.expanded)),
		s.Zoom,
		s.base.Font,
		s.base.LineHeight, s.base.PaddingX, s.base.PaddingY,
		s.base.HorizontalGap, s.base.VerticalGap,
		s.base.ChapterWidth, s.base.NoteWidth, float64(s.base.NoteMaxLines),
		s.base.Margin,
	})
	sum := sha256.Sum256(parts)
	return hex.EncodeToString(sum[:])
}

// HitTest maps a screen point through the pan offset and returns the
// node under it, if the cached layout has one.
func (s *Session) HitTest(x, y float64) (*layout.Node, bool) {
	if s.cached == nil {
		return nil, false
	}
	return s.cached.HitTest(x-s.Pan.X, y-s.Pan.Y)
}

// ToScreen converts a canvas point to screen coordinates.
func (s *Session) ToScreen(p Point) Point {
	return Point{p.X + s.Pan.X, p.Y + s.Pan.Y}
}

// ToCanvas converts a screen point to canvas coordinates.
func (s *Session) ToCanvas(p Point) Point {
	return Point{p.X - s.Pan.X, p.Y - s.Pan.Y}
}

// PanBy translates the view.
func (s *Session) PanBy(dx, dy float64) {
	s.Pan.X += dx
	s.Pan.Y += dy
}

// ZoomAt multiplies the zoom by factor, clamped to [MinZoom, MaxZoom],
// keeping the content under the given screen point stationary. The fixed
// point is found by dividing the screen offset by the current zoom, since
// canvas coordinates already carry it.
func (s *Session) ZoomAt(tree *outline.Tree, at Point, factor float64) error {
	old := s.Zoom
	next := clampZoom(old * factor)
	if next == old {
		return nil
	}

	// Unzoomed content point under the cursor.
	cx := (at.X - s.Pan.X) / old
	cy := (at.Y - s.Pan.Y) / old

	s.Zoom = next
	if _, err := s.Layout(tree); err != nil {
		return err
	}
	s.Pan.X = at.X - cx*next
	s.Pan.Y = at.Y - cy*next
	return nil
}

// ToggleCollapse flips the collapse state of a node and re-lays the tree
// out so the toggled node keeps its exact screen position. The rest of
// the canvas reflows around it; the node under the user's pointer never
// jumps.
func (s *Session) ToggleCollapse(tree *outline.Tree, id string) error {
	return s.toggleAnchored(tree, id, func() { flip(s.collapsed, id) })
}

// ToggleNote flips a note between clamped and fully expanded text, with
// the same screen anchoring as ToggleCollapse.
func (s *Session) ToggleNote(tree *outline.Tree, id string) error {
	return s.toggleAnchored(tree, id, func() { flip(s.expanded, id) })
}

// toggleAnchored records the node's screen center from the layout before
// the mutation, applies the mutation, recomputes, and solves for the pan
// that puts the node's new center back on the recorded screen point.
func (s *Session) toggleAnchored(tree *outline.Tree, id string, mutate func()) error {
	var anchor *Point
	if before, err := s.Layout(tree); err == nil {
		if n, ok := before.NodeByID(id); ok {
			p := s.ToScreen(Point{n.CenterX(), n.CenterY()})
			anchor = &p
		}
	}

	mutate()

	after, err := s.Layout(tree)
	if err != nil {
		return err
	}
	if anchor == nil {
		return nil
	}
	if n, ok := after.NodeByID(id); ok {
		s.Pan.X = anchor.X - n.CenterX()
		s.Pan.Y = anchor.Y - n.CenterY()
	}
	return nil
}

func flip(set map[string]bool, id string) {
	if set[id] {
		delete(set, id)
	} else {
		set[id] = true
	}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
