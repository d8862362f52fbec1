package render

import (
	"encoding/json"
	"testing"

	"github.com/pagefold/marginalia/pkg/layout"
)

func TestRenderJSON(t *testing.T) {
	res := testResult(t, layout.Options{})

	data, err := RenderJSON(res, WithJSONTitle("Doc"), WithJSONStyle("dark"))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}

	if out.Title != "Doc" {
		t.Errorf("Title = %q, want %q", out.Title, "Doc")
	}
	if out.Style != "dark" {
		t.Errorf("Style = %q, want %q", out.Style, "dark")
	}
	if out.Width != res.Width {
		t.Errorf("Width = %v, want %v", out.Width, res.Width)
	}
	if out.Height != res.Height {
		t.Errorf("Height = %v, want %v", out.Height, res.Height)
	}
	if len(out.Nodes) != len(res.Nodes) {
		t.Errorf("Nodes count = %d, want %d", len(out.Nodes), len(res.Nodes))
	}
	if len(out.Edges) != len(res.Edges) {
		t.Errorf("Edges count = %d, want %d", len(out.Edges), len(res.Edges))
	}
}

func TestRenderJSONNodeFields(t *testing.T) {
	res := testResult(t, layout.Options{})

	data, err := RenderJSON(res)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}

	byID := map[string]jsonNode{}
	for _, n := range out.Nodes {
		byID[n.ID] = n
	}

	note, ok := byID["n1"]
	if !ok {
		t.Fatal("note n1 missing from JSON output")
	}
	if note.Kind != "note" {
		t.Errorf("note Kind = %q, want %q", note.Kind, "note")
	}
	if note.Color != "yellow" {
		t.Errorf("note Color = %q, want %q", note.Color, "yellow")
	}
	if len(note.Lines) == 0 {
		t.Error("note has no wrapped lines")
	}

	// Edge paths carry the full cubic curve.
	for _, e := range out.Edges {
		if e.Path[0] == 0 && e.Path[7] == 0 {
			t.Errorf("edge %s->%s has a degenerate path", e.From, e.To)
		}
	}
}
