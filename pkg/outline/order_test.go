package outline

import (
	"errors"
	"slices"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestInsertAfter(t *testing.T) {
	setup := func(t *testing.T) *Tree {
		t.Helper()
		tr := New("doc")
		if err := tr.AddNode(Node{ID: "p", Kind: KindSource}, RootID); err != nil {
			t.Fatal(err)
		}
		if err := tr.AddNode(Node{ID: "a", Kind: KindNote, Order: fptr(0)}, "p"); err != nil {
			t.Fatal(err)
		}
		if err := tr.AddNode(Node{ID: "b", Kind: KindNote, Order: fptr(1)}, "p"); err != nil {
			t.Fatal(err)
		}
		return tr
	}

	t.Run("midpoint between neighbors", func(t *testing.T) {
		tr := setup(t)
		n, err := tr.InsertAfter("p", KindNote, "a")
		if err != nil {
			t.Fatalf("InsertAfter() error = %v", err)
		}
		if got := *n.Order; got != 0.5 {
			t.Errorf("order = %v, want 0.5", got)
		}
		if got := tr.Children("p"); !slices.Equal(got, []string{"a", n.ID, "b"}) {
			t.Errorf("Children(p) = %v, want [a %s b]", got, n.ID)
		}
	})

	t.Run("after last sibling", func(t *testing.T) {
		tr := setup(t)
		n, err := tr.InsertAfter("p", KindNote, "b")
		if err != nil {
			t.Fatalf("InsertAfter() error = %v", err)
		}
		if got := *n.Order; got != 2 {
			t.Errorf("order = %v, want 2", got)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		tr := setup(t)
		if _, err := tr.InsertAfter("missing", KindNote, "a"); !errors.Is(err, ErrUnknownParent) {
			t.Errorf("error = %v, want %v", err, ErrUnknownParent)
		}
	})

	t.Run("unknown sibling", func(t *testing.T) {
		tr := setup(t)
		if _, err := tr.InsertAfter("p", KindNote, "missing"); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("error = %v, want %v", err, ErrUnknownNode)
		}
	})

	t.Run("note parent refused", func(t *testing.T) {
		tr := setup(t)
		if _, err := tr.InsertAfter("a", KindNote, "x"); !errors.Is(err, ErrNoteParent) {
			t.Errorf("error = %v, want %v", err, ErrNoteParent)
		}
	})
}

func TestAppend(t *testing.T) {
	t.Run("max plus one", func(t *testing.T) {
		tr := New("doc")
		if err := tr.AddNode(Node{ID: "p", Kind: KindSource}, RootID); err != nil {
			t.Fatal(err)
		}
		for i, ord := range []float64{0, 0.5, 1} {
			id := string(rune('a' + i))
			if err := tr.AddNode(Node{ID: id, Kind: KindNote, Order: fptr(ord)}, "p"); err != nil {
				t.Fatal(err)
			}
		}
		n, err := tr.Append("p", KindNote)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if got := *n.Order; got != 2 {
			t.Errorf("order = %v, want 2", got)
		}
		if kids := tr.Children("p"); kids[len(kids)-1] != n.ID {
			t.Errorf("appended node not last: %v", kids)
		}
	})

	t.Run("empty parent starts at zero", func(t *testing.T) {
		tr := New("doc")
		n, err := tr.Append(RootID, KindCustom)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if got := *n.Order; got != 0 {
			t.Errorf("order = %v, want 0", got)
		}
	})

	t.Run("note parent refused", func(t *testing.T) {
		tr := New("doc")
		if err := tr.AddNode(Node{ID: "n", Kind: KindNote}, RootID); err != nil {
			t.Fatal(err)
		}
		if _, err := tr.Append("n", KindNote); !errors.Is(err, ErrNoteParent) {
			t.Errorf("error = %v, want %v", err, ErrNoteParent)
		}
	})
}

func TestResolveBackfill(t *testing.T) {
	// Keyless siblings follow document position and get their rank as key.
	src := []SourceNode{
		{Title: "One", Anchor: AnchorAt(0, 0)},
		{Title: "Two", Anchor: AnchorAt(1, 0)},
		{Title: "Three", Anchor: AnchorAt(2, 0)},
	}
	tr, err := Build("doc", src, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := tr.Children(RootID); !slices.Equal(got, []string{"src-0", "src-1", "src-2"}) {
		t.Fatalf("Children(root) = %v", got)
	}
	for i, id := range tr.Children(RootID) {
		if got := *tr.MustNode(id).Order; got != float64(i) {
			t.Errorf("%s order = %v, want %d", id, got, i)
		}
	}
}

func TestResolveExplicitWins(t *testing.T) {
	// An explicit key places an item regardless of its document position.
	src := []SourceNode{
		{Title: "One", Anchor: AnchorAt(0, 0)},
		{Title: "Two", Anchor: AnchorAt(1, 0)},
	}
	items := []Item{
		{ID: "late", Text: "pinned early", Anchor: AnchorAt(9, 0.9), Order: fptr(0.5)},
	}
	tr, err := Build("doc", src, items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"src-0", "late", "src-1"}
	if got := tr.Children(RootID); !slices.Equal(got, want) {
		t.Errorf("Children(root) = %v, want %v", got, want)
	}
}

func TestResolveCollision(t *testing.T) {
	// Identical explicit keys re-spread by the bump amount, in rank order.
	items := []Item{
		{ID: "i1", Text: "a", Anchor: AnchorAt(0, 0.1), Order: fptr(0.5)},
		{ID: "i2", Text: "b", Anchor: AnchorAt(0, 0.2), Order: fptr(0.5)},
		{ID: "i3", Text: "c", Anchor: AnchorAt(0, 0.3), Order: fptr(0.5)},
	}
	tr, err := Build("doc", nil, items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	kids := tr.Children(RootID)
	if !slices.Equal(kids, []string{"i1", "i2", "i3"}) {
		t.Fatalf("Children(root) = %v", kids)
	}
	prev := *tr.MustNode(kids[0]).Order
	if prev != 0.5 {
		t.Errorf("first order = %v, want 0.5", prev)
	}
	for _, id := range kids[1:] {
		ord := *tr.MustNode(id).Order
		if ord <= prev {
			t.Errorf("%s order = %v, not strictly above %v", id, ord, prev)
		}
		if diff := ord - prev; diff < orderCollisionEpsilon {
			t.Errorf("%s gap = %v, below collision epsilon", id, diff)
		}
		prev = ord
	}
}

func TestMergeFallbackRank(t *testing.T) {
	// A hand-written note with no anchor resolves to (0,0) and sorts ahead
	// of a note anchored at page 2, 30% down.
	items := []Item{
		{ID: "note2", Text: "anchored", Anchor: AnchorAt(2, 0.3)},
		{ID: "note1", Text: "manual"},
	}
	tr, err := Build("doc", nil, items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"note1", "note2"}
	if got := tr.Children(RootID); !slices.Equal(got, want) {
		t.Errorf("Children(root) = %v, want %v", got, want)
	}
}

func TestMergeInterleavesNotesWithChapters(t *testing.T) {
	// Notes slot between chapters according to their page positions.
	src := []SourceNode{
		{Title: "One", Anchor: AnchorAt(0, 0)},
		{Title: "Two", Anchor: AnchorAt(5, 0)},
	}
	items := []Item{
		{ID: "mid", Text: "between chapters", Anchor: AnchorAt(2, 0.4)},
	}
	tr, err := Build("doc", src, items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"src-0", "mid", "src-1"}
	if got := tr.Children(RootID); !slices.Equal(got, want) {
		t.Errorf("Children(root) = %v, want %v", got, want)
	}
}
