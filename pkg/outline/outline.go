package outline

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Tree.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Tree.AddNode] when a node with the
	// same ID already exists in the tree. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node ID
	// that does not exist in the tree.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownParent is returned by [Tree.AddNode] when the parent ID
	// does not exist in the tree.
	ErrUnknownParent = errors.New("unknown parent node")

	// ErrRootImmutable is returned by operations that would remove, move,
	// or retype the root node. Every tree has exactly one fixed root.
	ErrRootImmutable = errors.New("root node cannot be modified")

	// ErrSelfParent is returned by [Tree.Reparent] when a node is asked to
	// become its own parent.
	ErrSelfParent = errors.New("node cannot be its own parent")

	// ErrWouldCycle is returned by [Tree.Reparent] when the requested
	// parent is a descendant of the node being moved. Accepting the move
	// would detach the subtree into a cycle.
	ErrWouldCycle = errors.New("move would create a cycle")

	// ErrNoteParent is returned by [Tree.Reparent] when the requested
	// parent is a plain annotation. Notes hold no structural children
	// unless promoted to a chapter title first.
	ErrNoteParent = errors.New("annotation cannot receive children")

	// ErrNotAnnotation is returned by [Tree.Promote] and [Tree.Demote]
	// when the node did not originate from an annotation.
	ErrNotAnnotation = errors.New("node is not an annotation")

	// ErrTreeHasCycle is returned by [Tree.Validate] when the parent/child
	// indices contain a cycle. This indicates index corruption, since every
	// mutation path refuses cycle-forming moves.
	ErrTreeHasCycle = errors.New("tree contains a cycle")

	// ErrDetachedNode is returned by [Tree.Validate] when a node is not
	// reachable from the root.
	ErrDetachedNode = errors.New("node not reachable from root")
)

// RootID is the node ID of the synthetic root every document tree carries.
const RootID = "__document__"

// Kind distinguishes the origin and role of a tree node.
type Kind int

const (
	// KindRoot is the synthetic document root. Exactly one per tree.
	KindRoot Kind = iota
	// KindSource is a chapter node derived from the document's own outline.
	// Its title refreshes on rebuild; user data attached to it survives via
	// its deterministic ID.
	KindSource
	// KindCustom is a user-created structural node: either a chapter added
	// by hand or an annotation promoted to a chapter title. Custom nodes
	// can receive children.
	KindCustom
	// KindNote is an annotation leaf (highlight, note, translated
	// fragment). Notes cannot receive structural children.
	KindNote
)

// String returns the serialized name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindSource:
		return "source"
	case KindCustom:
		return "custom"
	case KindNote:
		return "note"
	}
	return "unknown"
}

// Origin records who created an annotation.
type Origin string

const (
	// OriginUser marks annotations the reader created by hand.
	OriginUser Origin = "user"
	// OriginMachine marks annotations produced by an assistant, e.g. a
	// generated translation or summary note.
	OriginMachine Origin = "machine"
)

// Anchor ties a node to a position in the document. Either field may be
// nil when the source format carries no position data (plain markdown has
// no pages; a hand-created chapter has no position at all).
type Anchor struct {
	PageIndex *int     `json:"pageIndex" bson:"pageIndex"`
	TopRatio  *float64 `json:"topRatio" bson:"topRatio"`
}

// IsZero reports whether the anchor carries no position data.
func (a Anchor) IsZero() bool { return a.PageIndex == nil && a.TopRatio == nil }

// AnchorAt builds a fully specified anchor. Helper for tests and sources.
func AnchorAt(page int, ratio float64) Anchor {
	return Anchor{PageIndex: &page, TopRatio: &ratio}
}

// Rect is a highlight region on a page in normalized page coordinates
// (origin top-left, extents in [0,1]).
type Rect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Node is a vertex in the document tree: the root, an outline chapter, a
// user chapter, or an annotation. Parent/child relations live in the
// owning [Tree], not on the node.
//
// The zero value is not usable - ID must be set before adding to a tree.
type Node struct {
	ID           string   // Unique identifier
	Title        string   // Display text (annotation body for notes)
	Translation  string   // Optional secondary text block under the title
	Kind         Kind     // Role of the node
	Color        string   // Highlight color for annotations ("" = default)
	Anchor       Anchor   // Document position, possibly partial
	Rects        []Rect   // Highlight regions for annotations
	Order        *float64 // Explicit order key, nil until assigned
	Origin       Origin   // Who created an annotation ("" for structural)
	QuestionRefs []string // IDs of reader questions attached to this node
}

// IsStructural reports whether the node can receive children.
func (n Node) IsStructural() bool { return n.Kind != KindNote }

// OrderValue returns the explicit order key and whether one is set.
func (n Node) OrderValue() (float64, bool) {
	if n.Order == nil {
		return 0, false
	}
	return *n.Order, true
}

// Tree is a rooted tree of document chapters and annotations indexed by
// node ID. All structure lives in the tree's maps, so moves and removals
// never touch node structs.
//
// The zero value is not usable - use New to create a valid Tree.
// Tree is not safe for concurrent use without external synchronization.
type Tree struct {
	nodes    map[string]*Node
	children map[string][]string // nodeID -> ordered child IDs
	parents  map[string]string   // nodeID -> parent ID (absent for root)
}

// New creates a tree containing only the synthetic root. The title becomes
// the root's display text (typically the document title).
func New(title string) *Tree {
	t := &Tree{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string]string),
	}
	t.nodes[RootID] = &Node{ID: RootID, Title: title, Kind: KindRoot}
	return t
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node { return t.nodes[RootID] }

// Node returns the node with the given ID and true, or nil and false if
// not found. The returned pointer refers to the actual node, so field
// modifications affect the tree (structure changes go through Tree
// methods instead).
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// MustNode returns the node with the given ID, panicking if absent.
// Intended for tests and for walks over IDs the tree itself produced.
func (t *Tree) MustNode(id string) *Node {
	n, ok := t.nodes[id]
	if !ok {
		panic("outline: unknown node " + id)
	}
	return n
}

// Children returns the ordered child IDs of the node.
// Returns nil if the node has no children or doesn't exist. The returned
// slice should not be modified - use it as a read-only view.
func (t *Tree) Children(id string) []string { return t.children[id] }

// Parent returns the parent ID of the node and true, or "" and false for
// the root or an unknown node.
func (t *Tree) Parent(id string) (string, bool) {
	p, ok := t.parents[id]
	return p, ok
}

// NodeCount returns the number of nodes in the tree, including the root.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// Nodes returns all nodes in the tree in unspecified order.
// Use [Tree.Walk] for a deterministic traversal.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// AddNode adds a node under the given parent, appending it to the
// parent's child list. Returns ErrInvalidNodeID for an empty ID,
// ErrDuplicateNodeID if the ID is taken, or ErrUnknownParent if the
// parent doesn't exist.
func (t *Tree) AddNode(n Node, parentID string) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := t.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if _, ok := t.nodes[parentID]; !ok {
		return ErrUnknownParent
	}
	node := &n
	t.nodes[node.ID] = node
	t.children[parentID] = append(t.children[parentID], node.ID)
	t.parents[node.ID] = parentID
	return nil
}

// Remove deletes a node. Its children are spliced into the parent's child
// list at the removed node's position, so nothing is ever dropped and the
// visible order is preserved. The root cannot be removed.
func (t *Tree) Remove(id string) error {
	if id == RootID {
		return ErrRootImmutable
	}
	if _, ok := t.nodes[id]; !ok {
		return ErrUnknownNode
	}
	parentID := t.parents[id]
	siblings := t.children[parentID]
	pos := slices.Index(siblings, id)

	orphans := t.children[id]
	spliced := make([]string, 0, len(siblings)-1+len(orphans))
	spliced = append(spliced, siblings[:pos]...)
	spliced = append(spliced, orphans...)
	spliced = append(spliced, siblings[pos+1:]...)
	t.children[parentID] = spliced

	for _, c := range orphans {
		t.parents[c] = parentID
	}
	delete(t.children, id)
	delete(t.parents, id)
	delete(t.nodes, id)
	return nil
}

// Promote turns an annotation into a chapter title. The node keeps its
// ID, color, anchor, and position among its siblings; only its kind
// changes, so it can now receive children.
func (t *Tree) Promote(id string) error {
	n, ok := t.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.Kind != KindNote {
		return ErrNotAnnotation
	}
	n.Kind = KindCustom
	return nil
}

// Demote reverses [Tree.Promote]: a chapter title created from an
// annotation becomes a plain note again, keeping its ID and color. Any
// children it gathered are spliced into its parent's child list, mirroring
// [Tree.Remove], since notes hold no children.
func (t *Tree) Demote(id string) error {
	n, ok := t.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.Kind != KindCustom || n.Origin == "" {
		return ErrNotAnnotation
	}

	if orphans := t.children[id]; len(orphans) > 0 {
		parentID := t.parents[id]
		siblings := t.children[parentID]
		pos := slices.Index(siblings, id)
		spliced := make([]string, 0, len(siblings)+len(orphans))
		spliced = append(spliced, siblings[:pos+1]...)
		spliced = append(spliced, orphans...)
		spliced = append(spliced, siblings[pos+1:]...)
		t.children[parentID] = spliced
		for _, c := range orphans {
			t.parents[c] = parentID
		}
		delete(t.children, id)
	}

	n.Kind = KindNote
	return nil
}

// Walk traverses the tree depth-first in child-list order, calling fn for
// each node with its depth (root = 0). Returning false from fn skips the
// node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n := t.nodes[id]
		if n == nil {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, c := range t.children[id] {
			visit(c, depth+1)
		}
	}
	visit(RootID, 0)
}

// Subtree returns the IDs of the node and all its descendants in
// depth-first order. Returns nil for an unknown node.
func (t *Tree) Subtree(id string) []string {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	var ids []string
	var visit func(id string)
	visit = func(id string) {
		ids = append(ids, id)
		for _, c := range t.children[id] {
			visit(c)
		}
	}
	visit(id)
	return ids
}

// IsAncestor reports whether ancestorID lies on the parent chain of id.
// A node is not its own ancestor.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	cur, ok := t.parents[id]
	for ok {
		if cur == ancestorID {
			return true
		}
		cur, ok = t.parents[cur]
	}
	return false
}

// Validate checks tree integrity and returns nil if valid.
// It verifies three constraints:
//
//  1. Parent and child indices agree with each other
//  2. The structure is acyclic
//  3. Every node is reachable from the root
//
// Returns ErrUnknownNode for index entries referencing missing nodes,
// ErrTreeHasCycle if a cycle is detected, or ErrDetachedNode for
// unreachable nodes. Use this after deserializing external state.
//
// Cycle detection runs in O(N) time using depth-first search.
func (t *Tree) Validate() error {
	if _, ok := t.nodes[RootID]; !ok {
		return ErrUnknownNode
	}
	for parent, kids := range t.children {
		if _, ok := t.nodes[parent]; !ok {
			return ErrUnknownNode
		}
		for _, c := range kids {
			if _, ok := t.nodes[c]; !ok {
				return ErrUnknownNode
			}
			if t.parents[c] != parent {
				return ErrDetachedNode
			}
		}
	}
	if err := t.detectCycles(); err != nil {
		return err
	}

	reached := make(map[string]bool, len(t.nodes))
	t.Walk(func(n *Node, _ int) bool {
		reached[n.ID] = true
		return true
	})
	for id := range t.nodes {
		if !reached[id] {
			return ErrDetachedNode
		}
	}
	return nil
}

func (t *Tree) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(t.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range t.children[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range t.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrTreeHasCycle
			}
		}
	}
	return nil
}
