package markdown

import (
	"testing"

	"github.com/pagefold/marginalia/pkg/source"
)

func TestParseHeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

## Section B
`
	doc := Parse([]byte(input), "doc")

	if doc.Title != "doc" {
		t.Errorf("Title = %q, want %q", doc.Title, "doc")
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(doc.Entries))
	}

	h1 := doc.Entries[0]
	if h1.Title != "Title" {
		t.Errorf("h1 title = %q, want %q", h1.Title, "Title")
	}
	if len(h1.Children) != 2 {
		t.Fatalf("len(h1.Children) = %d, want 2", len(h1.Children))
	}
	if h1.Children[0].Title != "Section A" || h1.Children[1].Title != "Section B" {
		t.Errorf("h2 titles = %q, %q, want Section A, Section B",
			h1.Children[0].Title, h1.Children[1].Title)
	}
	if len(h1.Children[0].Children) != 1 || h1.Children[0].Children[0].Title != "Subsection A1" {
		t.Errorf("h3 under Section A = %+v, want Subsection A1", h1.Children[0].Children)
	}
}

func TestParseSkipsLevels(t *testing.T) {
	input := "# A\n\n### Deep\n\n## Back\n"
	doc := Parse([]byte(input), "doc")

	a := doc.Entries[0]
	if len(a.Children) != 2 {
		t.Fatalf("len(a.Children) = %d, want 2", len(a.Children))
	}
	if a.Children[0].Title != "Deep" || a.Children[1].Title != "Back" {
		t.Errorf("children = %q, %q, want Deep, Back", a.Children[0].Title, a.Children[1].Title)
	}
}

func TestParsePositionsFollowReadingOrder(t *testing.T) {
	input := "# A\n\nsome body text here\n\n# B\n\nmore text\n\n# C\n"
	doc := Parse([]byte(input), "doc")

	if len(doc.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(doc.Entries))
	}
	prev := -1.0
	for _, e := range doc.Entries {
		pos, ok := source.ResolvePosition(e.Dest)
		if !ok {
			t.Fatalf("entry %q has no position", e.Title)
		}
		if pos.Page != 0 {
			t.Errorf("entry %q page = %d, want 0", e.Title, pos.Page)
		}
		if pos.TopRatio <= prev {
			t.Errorf("entry %q ratio = %v, want > %v", e.Title, pos.TopRatio, prev)
		}
		prev = pos.TopRatio
	}
}

func TestParseNoHeadings(t *testing.T) {
	doc := Parse([]byte("just a paragraph\n"), "doc")
	if len(doc.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(doc.Entries))
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"notes.md", true},
		{"notes.markdown", true},
		{"NOTES.MD", true},
		{"notes.txt", false},
		{"md", false},
	}
	for _, tt := range tests {
		if got := Reader.Supports(tt.filename); got != tt.expected {
			t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}
