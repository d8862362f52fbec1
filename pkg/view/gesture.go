package view

import (
	"math"
	"time"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Gesture tuning defaults. Hosts override per input device.
const (
	// DefaultHoldDelay is how long a press must persist before it arms a
	// drag instead of counting as a click.
	DefaultHoldDelay = 350 * time.Millisecond

	// DefaultMoveThreshold is the pointer travel, in screen units, that
	// cancels a pending drag before the hold delay elapses.
	DefaultMoveThreshold = 5.0

	// DefaultClickSuppress is the window after a drop in which pointer-up
	// events must not be read as selection clicks.
	DefaultClickSuppress = 250 * time.Millisecond
)

// Phase is the gesture state machine's current state.
type Phase int

const (
	PhaseIdle     Phase = iota
	PhasePressed        // press recorded, hold timer pending
	PhaseDragging       // hold elapsed, node follows the pointer
	PhasePanning        // press began on empty canvas
)

func (p Phase) String() string {
	switch p {
	case PhasePressed:
		return "pressed"
	case PhaseDragging:
		return "dragging"
	case PhasePanning:
		return "panning"
	default:
		return "idle"
	}
}

// ActionKind classifies what a completed gesture asks the host to do.
type ActionKind int

const (
	ActionNone  ActionKind = iota
	ActionClick            // plain click on a node
	ActionMoved            // node committed onto a new parent
)

// Action is the outcome of a pointer release.
type Action struct {
	Kind     ActionKind
	NodeID   string // clicked or moved node
	TargetID string // new parent, for ActionMoved
}

// Controller runs the pointer gesture state machine over one session and
// its tree: press-and-hold drags that reparent nodes, canvas panning, and
// plain clicks. At most one gesture is live; starting a new one cancels
// whatever was pending or active.
//
// The controller owns no timers. Hosts feed it pointer events and clock
// readings; the hold delay is a deadline checked on each event, so
// cancellation is a state reset rather than timer bookkeeping.
type Controller struct {
	HoldDelay     time.Duration
	MoveThreshold float64
	ClickSuppress time.Duration

	sess *Session
	tree *outline.Tree

	phase         Phase
	nodeID        string
	pressAt       time.Time
	origin        Point
	pressOffset   Point
	preview       Point
	target        string
	last          Point
	suppressUntil time.Time
}

// NewController creates a controller with the default tuning.
func NewController(tree *outline.Tree, sess *Session) *Controller {
	return &Controller{
		HoldDelay:     DefaultHoldDelay,
		MoveThreshold: DefaultMoveThreshold,
		ClickSuppress: DefaultClickSuppress,
		sess:          sess,
		tree:          tree,
	}
}

// SetTree swaps the tree after a rebuild. Any live gesture is cancelled,
// since the structure it referenced may be gone.
func (c *Controller) SetTree(tree *outline.Tree) {
	c.Cancel()
	c.tree = tree
}

// Phase returns the current gesture state.
func (c *Controller) Phase() Phase { return c.phase }

// Cancel aborts any pending or active gesture.
func (c *Controller) Cancel() {
	c.phase = PhaseIdle
	c.nodeID = ""
	c.target = ""
}

// Press starts a gesture at a screen point. A press on a node begins the
// hold countdown toward a drag; a press on empty canvas begins a pan.
func (c *Controller) Press(now time.Time, x, y float64) {
	c.Cancel()
	c.origin = Point{x, y}
	c.last = c.origin

	n, ok := c.sess.HitTest(x, y)
	if !ok {
		c.phase = PhasePanning
		return
	}
	c.phase = PhasePressed
	c.nodeID = n.ID
	c.pressAt = now
	c.pressOffset = Point{x - (n.X + c.sess.Pan.X), y - (n.Y + c.sess.Pan.Y)}
}

// Move feeds pointer motion into the live gesture. Before the hold delay
// elapses, travel past the threshold cancels the pending drag; after it,
// motion carries the floating preview and retargets the drop candidate.
// While panning, motion translates the view.
func (c *Controller) Move(now time.Time, x, y float64) {
	p := Point{x, y}
	switch c.phase {
	case PhasePressed:
		c.arm(now)
		if c.phase == PhasePressed {
			if math.Hypot(p.X-c.origin.X, p.Y-c.origin.Y) > c.MoveThreshold {
				c.Cancel()
			}
			return
		}
		c.drag(p)
	case PhaseDragging:
		c.drag(p)
	case PhasePanning:
		c.sess.PanBy(p.X-c.last.X, p.Y-c.last.Y)
		c.last = p
	}
}

// Tick advances the hold countdown. Hosts with real timers call this when
// their timer fires; hosts without call Move often enough instead.
func (c *Controller) Tick(now time.Time) {
	c.arm(now)
}

// arm promotes a held press to a drag once the delay has elapsed. The
// root never arms; it is clickable but not movable.
func (c *Controller) arm(now time.Time) {
	if c.phase != PhasePressed || c.nodeID == outline.RootID {
		return
	}
	if now.Sub(c.pressAt) < c.HoldDelay {
		return
	}
	c.phase = PhaseDragging
	c.preview = Point{c.origin.X - c.pressOffset.X, c.origin.Y - c.pressOffset.Y}
	c.target = ""
}

// drag updates the floating preview and re-resolves the drop candidate
// under the pointer.
func (c *Controller) drag(p Point) {
	c.preview = Point{p.X - c.pressOffset.X, p.Y - c.pressOffset.Y}
	c.target = ""
	if n, ok := c.sess.HitTest(p.X, p.Y); ok && c.legalTarget(n) {
		c.target = n.ID
	}
	c.last = p
}

// legalTarget filters drop candidates during the drag: not the dragged
// node itself, not a note, not anything inside the dragged subtree.
func (c *Controller) legalTarget(n *layout.Node) bool {
	if n.ID == c.nodeID || n.Kind == outline.KindNote {
		return false
	}
	if c.tree != nil && c.tree.IsAncestor(c.nodeID, n.ID) {
		return false
	}
	return true
}

// Release ends the gesture. A press that never armed is a click on the
// node. A drag commits only when the drop candidate differs from the
// node's current parent and the tree accepts the move; any rejection is a
// silent no-op. Every finished drag opens the click-suppression window so
// the pointer-up is not misread as a selection.
func (c *Controller) Release(now time.Time, x, y float64) Action {
	defer c.Cancel()

	c.arm(now)
	switch c.phase {
	case PhasePressed:
		return Action{Kind: ActionClick, NodeID: c.nodeID}
	case PhaseDragging:
		c.drag(Point{x, y})
		c.suppressUntil = now.Add(c.ClickSuppress)
		if c.target == "" || c.tree == nil {
			return Action{}
		}
		if parent, ok := c.tree.Parent(c.nodeID); ok && parent == c.target {
			return Action{}
		}
		if err := c.tree.Reparent(c.nodeID, c.target); err != nil {
			return Action{}
		}
		return Action{Kind: ActionMoved, NodeID: c.nodeID, TargetID: c.target}
	}
	return Action{}
}

// DragPreview returns the dragged node and the screen position of its
// floating preview while a drag is active.
func (c *Controller) DragPreview() (string, Point, bool) {
	if c.phase != PhaseDragging {
		return "", Point{}, false
	}
	return c.nodeID, c.preview, true
}

// DropTarget returns the current drop candidate while a drag is active.
func (c *Controller) DropTarget() (string, bool) {
	if c.phase != PhaseDragging || c.target == "" {
		return "", false
	}
	return c.target, true
}

// ClickSuppressed reports whether a click event at the given time falls
// inside the post-drop suppression window.
func (c *Controller) ClickSuppressed(now time.Time) bool {
	return now.Before(c.suppressUntil)
}

// Click resolves a host-level click event to the node under the point,
// honoring the post-drop suppression window.
func (c *Controller) Click(now time.Time, x, y float64) (string, bool) {
	if c.ClickSuppressed(now) {
		return "", false
	}
	n, ok := c.sess.HitTest(x, y)
	if !ok {
		return "", false
	}
	return n.ID, true
}
