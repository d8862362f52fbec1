package outline

import (
	"errors"
	"slices"
	"testing"
)

func TestReparent(t *testing.T) {
	t.Run("accepted move appends to new parent", func(t *testing.T) {
		tr := buildFixture(t)
		if err := tr.Reparent("c3", "c1"); err != nil {
			t.Fatalf("Reparent() error = %v", err)
		}
		if got := tr.Children("c1"); !slices.Equal(got, []string{"n1", "c2", "c3"}) {
			t.Errorf("Children(c1) = %v, want [n1 c2 c3]", got)
		}
		if got := tr.Children(RootID); !slices.Equal(got, []string{"c1"}) {
			t.Errorf("Children(root) = %v, want [c1]", got)
		}
		if p, _ := tr.Parent("c3"); p != "c1" {
			t.Errorf("Parent(c3) = %q, want c1", p)
		}
		if err := tr.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("same parent is a no-op", func(t *testing.T) {
		tr := buildFixture(t)
		before := tr.Fingerprint()
		if err := tr.Reparent("c1", RootID); err != nil {
			t.Fatalf("Reparent() error = %v", err)
		}
		if got := tr.Fingerprint(); got != before {
			t.Error("tree changed by same-parent move")
		}
	})

	tests := []struct {
		name    string
		node    string
		target  string
		wantErr error
	}{
		{name: "self parent", node: "c1", target: "c1", wantErr: ErrSelfParent},
		{name: "descendant target", node: "c1", target: "c2", wantErr: ErrWouldCycle},
		{name: "deep descendant target", node: "c1", target: "n2", wantErr: ErrNoteParent},
		{name: "note target", node: "c3", target: "n1", wantErr: ErrNoteParent},
		{name: "unknown node", node: "ghost", target: "c1", wantErr: ErrUnknownNode},
		{name: "unknown target", node: "c3", target: "ghost", wantErr: ErrUnknownNode},
		{name: "root move", node: RootID, target: "c1", wantErr: ErrRootImmutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := buildFixture(t)
			before := tr.Fingerprint()
			if err := tr.Reparent(tt.node, tt.target); !errors.Is(err, tt.wantErr) {
				t.Errorf("Reparent(%s, %s) error = %v, want %v", tt.node, tt.target, err, tt.wantErr)
			}
			if got := tr.Fingerprint(); got != before {
				t.Error("rejected move changed the tree")
			}
		})
	}
}

func TestApplyMoves(t *testing.T) {
	t.Run("skips rejected entries silently", func(t *testing.T) {
		tr := buildFixture(t)
		tr.ApplyMoves(map[string]string{
			"c3":    "c1",  // accepted
			"c1":    "c2",  // cycle, skipped
			"ghost": "c1",  // unknown, skipped
			"n2":    "n1",  // note target, skipped
			"c2":    "c2",  // self, skipped
		})

		if p, _ := tr.Parent("c3"); p != "c1" {
			t.Errorf("Parent(c3) = %q, want c1", p)
		}
		if p, _ := tr.Parent("c1"); p != RootID {
			t.Errorf("Parent(c1) = %q, want root", p)
		}
		if err := tr.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		moves := map[string]string{"c3": "c1", "n1": "c2"}

		tr := buildFixture(t)
		tr.ApplyMoves(moves)
		once := tr.Fingerprint()

		tr.ApplyMoves(moves)
		if got := tr.Fingerprint(); got != once {
			t.Error("second application changed the tree")
		}

		// A fresh tree with the same moves converges to the same shape.
		tr2 := buildFixture(t)
		tr2.ApplyMoves(moves)
		tr2.ApplyMoves(moves)
		if got := tr2.Fingerprint(); got != once {
			t.Error("replayed moves diverged")
		}
	})
}
