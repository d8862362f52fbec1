package htmldoc

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseFixture(t *testing.T, src string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	return n
}

func TestFromNodeHeadings(t *testing.T) {
	src := `<html><head><title>My Book</title></head><body>
<h1>Part One</h1>
<p>text</p>
<h2>Chapter 1</h2>
<h2>Chapter 2</h2>
<h1>Part Two</h1>
</body></html>`

	doc := FromNode(parseFixture(t, src), "fallback")

	if doc.Title != "My Book" {
		t.Errorf("Title = %q, want %q", doc.Title, "My Book")
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(doc.Entries))
	}
	one := doc.Entries[0]
	if one.Title != "Part One" || len(one.Children) != 2 {
		t.Fatalf("Part One = %q with %d children, want 2 chapters", one.Title, len(one.Children))
	}
	if one.Children[0].Title != "Chapter 1" || one.Children[1].Title != "Chapter 2" {
		t.Errorf("chapters = %q, %q", one.Children[0].Title, one.Children[1].Title)
	}
	if doc.Entries[1].Title != "Part Two" {
		t.Errorf("Entries[1] = %q, want Part Two", doc.Entries[1].Title)
	}
}

func TestFromNodeFallbackTitle(t *testing.T) {
	doc := FromNode(parseFixture(t, "<body><h1>A</h1></body>"), "fallback")
	if doc.Title != "fallback" {
		t.Errorf("Title = %q, want fallback", doc.Title)
	}
}

func TestFromNodeSkipsChrome(t *testing.T) {
	src := `<body>
<nav><h1>Menu</h1></nav>
<h1>Real</h1>
<script>var a = "<h1>Fake</h1>";</script>
</body>`

	doc := FromNode(parseFixture(t, src), "doc")
	if len(doc.Entries) != 1 || doc.Entries[0].Title != "Real" {
		t.Errorf("Entries = %+v, want only Real", doc.Entries)
	}
}

func TestFromNodeCollapsesWhitespace(t *testing.T) {
	src := "<body><h1>  Spaced \n  Out  </h1></body>"
	doc := FromNode(parseFixture(t, src), "doc")
	if len(doc.Entries) != 1 || doc.Entries[0].Title != "Spaced Out" {
		t.Errorf("title = %q, want %q", doc.Entries[0].Title, "Spaced Out")
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"page.html", true},
		{"page.htm", true},
		{"PAGE.HTML", true},
		{"page.xhtml", false},
	}
	for _, tt := range tests {
		if got := Reader.Supports(tt.filename); got != tt.expected {
			t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}
