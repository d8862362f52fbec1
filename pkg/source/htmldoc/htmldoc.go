// Package htmldoc reads HTML outlines from h1-h6 headings.
package htmldoc

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/source"
)

// Reader loads .html and .htm files.
var Reader source.Reader = reader{}

type reader struct{}

func (reader) Name() string { return "html" }

func (reader) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return true
	}
	return false
}

func (reader) Load(path string) (*source.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	return FromNode(root, source.TitleFromPath(path)), nil
}

// FromNode builds the outline from a parsed HTML tree. The document
// title comes from the title element when present; heading destinations
// are element-order ratios, approximating vertical position in an
// unpaginated page.
func FromNode(root *html.Node, fallbackTitle string) *source.Document {
	doc := &source.Document{Title: fallbackTitle}
	if t := pageTitle(root); t != "" {
		doc.Title = t
	}

	total := countElements(root)

	type frame struct {
		entries *[]source.Entry
		level   int
	}
	stack := []frame{{entries: &doc.Entries, level: 0}}

	seen := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			seen++
			switch n.Data {
			case "script", "style", "nav", "footer":
				return
			}
			if level := headingLevel(n.Data); level > 0 {
				e := source.Entry{Title: textContent(n)}
				if total > 0 {
					e.Dest = source.Position{TopRatio: float64(seen-1) / float64(total)}
				}
				for len(stack) > 1 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				parent := stack[len(stack)-1].entries
				*parent = append(*parent, e)
				stack = append(stack, frame{
					entries: &(*parent)[len(*parent)-1].Children,
					level:   level,
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := pageTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func countElements(n *html.Node) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return count
}
