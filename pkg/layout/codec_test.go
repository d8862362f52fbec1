package layout

import (
	"reflect"
	"testing"
)

func TestResultRoundTrip(t *testing.T) {
	res, err := Compute(testTree(t), testOptions())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	data, err := MarshalResult(res)
	if err != nil {
		t.Fatalf("MarshalResult() error = %v", err)
	}
	got, err := UnmarshalResult(data)
	if err != nil {
		t.Fatalf("UnmarshalResult() error = %v", err)
	}

	if !reflect.DeepEqual(got.Nodes, res.Nodes) {
		t.Errorf("Nodes differ after round trip:\ngot  %+v\nwant %+v", got.Nodes, res.Nodes)
	}
	if !reflect.DeepEqual(got.Edges, res.Edges) {
		t.Errorf("Edges differ after round trip")
	}
	if got.Width != res.Width || got.Height != res.Height {
		t.Errorf("extent = %gx%g, want %gx%g", got.Width, got.Height, res.Width, res.Height)
	}
	if got.PaddingX != res.PaddingX || got.PaddingY != res.PaddingY {
		t.Errorf("paddings = %g/%g, want %g/%g", got.PaddingX, got.PaddingY, res.PaddingX, res.PaddingY)
	}

	// The restored index keeps lookups working.
	for _, n := range res.Nodes {
		if _, ok := got.NodeByID(n.ID); !ok {
			t.Errorf("NodeByID(%s) lost after round trip", n.ID)
		}
	}
}

func TestUnmarshalResultRejectsUnknownKind(t *testing.T) {
	if _, err := UnmarshalResult([]byte(`{"nodes":[{"id":"x","kind":"tower"}]}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestUnmarshalResultRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalResult([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
