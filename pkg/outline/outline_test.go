package outline

import (
	"errors"
	"slices"
	"testing"
)

// buildFixture returns a small tree:
//
//	root
//	├── c1
//	│   ├── n1 (note)
//	│   └── c2
//	│       └── n2 (note)
//	└── c3
func buildFixture(t *testing.T) *Tree {
	t.Helper()
	tr := New("doc")
	nodes := []struct {
		node   Node
		parent string
	}{
		{Node{ID: "c1", Title: "One", Kind: KindSource}, RootID},
		{Node{ID: "n1", Title: "note one", Kind: KindNote, Color: "#fc0", Origin: OriginUser}, "c1"},
		{Node{ID: "c2", Title: "Two", Kind: KindSource}, "c1"},
		{Node{ID: "n2", Title: "note two", Kind: KindNote, Origin: OriginUser}, "c2"},
		{Node{ID: "c3", Title: "Three", Kind: KindCustom}, RootID},
	}
	for _, n := range nodes {
		if err := tr.AddNode(n.node, n.parent); err != nil {
			t.Fatalf("AddNode(%s) error = %v", n.node.ID, err)
		}
	}
	return tr
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		parent  string
		wantErr error
	}{
		{name: "valid", node: Node{ID: "a"}, parent: RootID, wantErr: nil},
		{name: "empty id", node: Node{}, parent: RootID, wantErr: ErrInvalidNodeID},
		{name: "duplicate id", node: Node{ID: RootID}, parent: RootID, wantErr: ErrDuplicateNodeID},
		{name: "unknown parent", node: Node{ID: "b"}, parent: "missing", wantErr: ErrUnknownParent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New("doc")
			err := tr.AddNode(tt.node, tt.parent)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTreeQueries(t *testing.T) {
	tr := buildFixture(t)

	if got := tr.NodeCount(); got != 6 {
		t.Errorf("NodeCount() = %d, want 6", got)
	}
	if got := tr.Children("c1"); !slices.Equal(got, []string{"n1", "c2"}) {
		t.Errorf("Children(c1) = %v, want [n1 c2]", got)
	}
	if p, ok := tr.Parent("n2"); !ok || p != "c2" {
		t.Errorf("Parent(n2) = %q, %v, want c2, true", p, ok)
	}
	if _, ok := tr.Parent(RootID); ok {
		t.Error("Parent(root) ok = true, want false")
	}
	if got := tr.Subtree("c1"); !slices.Equal(got, []string{"c1", "n1", "c2", "n2"}) {
		t.Errorf("Subtree(c1) = %v", got)
	}
	if !tr.IsAncestor("c1", "n2") {
		t.Error("IsAncestor(c1, n2) = false, want true")
	}
	if tr.IsAncestor("n2", "c1") {
		t.Error("IsAncestor(n2, c1) = true, want false")
	}
	if tr.IsAncestor("c1", "c1") {
		t.Error("IsAncestor(c1, c1) = true, want false")
	}
}

func TestWalkOrder(t *testing.T) {
	tr := buildFixture(t)

	var ids []string
	tr.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	want := []string{RootID, "c1", "n1", "c2", "n2", "c3"}
	if !slices.Equal(ids, want) {
		t.Errorf("Walk order = %v, want %v", ids, want)
	}

	// Returning false skips the subtree.
	ids = nil
	tr.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return n.ID != "c1"
	})
	want = []string{RootID, "c1", "c3"}
	if !slices.Equal(ids, want) {
		t.Errorf("Walk with skip = %v, want %v", ids, want)
	}
}

func TestRemove(t *testing.T) {
	t.Run("splices children into parent", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Remove("c1"); err != nil {
			t.Fatalf("Remove(c1) error = %v", err)
		}

		// c1's children take its place among the root's children.
		if got := tr.Children(RootID); !slices.Equal(got, []string{"n1", "c2", "c3"}) {
			t.Errorf("Children(root) = %v, want [n1 c2 c3]", got)
		}
		if p, _ := tr.Parent("n1"); p != RootID {
			t.Errorf("Parent(n1) = %q, want root", p)
		}
		if _, ok := tr.Node("c1"); ok {
			t.Error("removed node still present")
		}
		if err := tr.Validate(); err != nil {
			t.Errorf("Validate() after remove = %v", err)
		}
	})

	t.Run("grandchildren survive", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Remove("c2"); err != nil {
			t.Fatalf("Remove(c2) error = %v", err)
		}
		if got := tr.Children("c1"); !slices.Equal(got, []string{"n1", "n2"}) {
			t.Errorf("Children(c1) = %v, want [n1 n2]", got)
		}
	})

	t.Run("root refused", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Remove(RootID); !errors.Is(err, ErrRootImmutable) {
			t.Errorf("Remove(root) error = %v, want %v", err, ErrRootImmutable)
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Remove("missing"); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("Remove(missing) error = %v, want %v", err, ErrUnknownNode)
		}
	})
}

func TestPromoteDemote(t *testing.T) {
	tr := buildFixture(t)

	if err := tr.Promote("n1"); err != nil {
		t.Fatalf("Promote(n1) error = %v", err)
	}
	n := tr.MustNode("n1")
	if n.Kind != KindCustom {
		t.Errorf("Kind after promote = %v, want %v", n.Kind, KindCustom)
	}
	if n.Color != "#fc0" {
		t.Errorf("Color after promote = %q, want #fc0", n.Color)
	}

	// Promoted titles accept children.
	if err := tr.AddNode(Node{ID: "n3", Kind: KindNote}, "n1"); err != nil {
		t.Fatalf("AddNode under promoted note error = %v", err)
	}

	if err := tr.Demote("n1"); err != nil {
		t.Fatalf("Demote(n1) error = %v", err)
	}
	if n.Kind != KindNote {
		t.Errorf("Kind after demote = %v, want %v", n.Kind, KindNote)
	}
	if n.ID != "n1" || n.Color != "#fc0" {
		t.Errorf("identity after round-trip = (%q, %q), want (n1, #fc0)", n.ID, n.Color)
	}

	// The child gathered while promoted moves up beside the demoted note.
	if p, _ := tr.Parent("n3"); p != "c1" {
		t.Errorf("Parent(n3) = %q, want c1", p)
	}
	if got := tr.Children("c1"); !slices.Equal(got, []string{"n1", "n3", "c2"}) {
		t.Errorf("Children(c1) = %v, want [n1 n3 c2]", got)
	}

	t.Run("promote structural refused", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Promote("c1"); !errors.Is(err, ErrNotAnnotation) {
			t.Errorf("Promote(c1) error = %v, want %v", err, ErrNotAnnotation)
		}
	})

	t.Run("demote plain chapter refused", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Demote("c3"); !errors.Is(err, ErrNotAnnotation) {
			t.Errorf("Demote(c3) error = %v, want %v", err, ErrNotAnnotation)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(tr *Tree)
		wantErr error
	}{
		{
			name:    "valid tree",
			corrupt: func(tr *Tree) {},
			wantErr: nil,
		},
		{
			name: "cycle in child index",
			corrupt: func(tr *Tree) {
				tr.children["n2"] = []string{"c1"}
				tr.parents["c1"] = "n2"
				tr.children[RootID] = []string{"c3"}
			},
			wantErr: ErrTreeHasCycle,
		},
		{
			name: "child entry for missing node",
			corrupt: func(tr *Tree) {
				tr.children["c3"] = []string{"ghost"}
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "parent index disagrees",
			corrupt: func(tr *Tree) {
				tr.parents["n1"] = "c3"
			},
			wantErr: ErrDetachedNode,
		},
		{
			name: "unreachable node",
			corrupt: func(tr *Tree) {
				tr.nodes["lost"] = &Node{ID: "lost"}
			},
			wantErr: ErrDetachedNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := buildFixture(t)
			tt.corrupt(tr)
			if err := tr.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
