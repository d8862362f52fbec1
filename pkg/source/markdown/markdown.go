// Package markdown reads Markdown outlines through goldmark's AST.
package markdown

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/source"
)

// Reader loads .md and .markdown files.
var Reader source.Reader = reader{}

type reader struct{}

func (reader) Name() string { return "markdown" }

func (reader) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func (reader) Load(path string) (*source.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return Parse(src, source.TitleFromPath(path)), nil
}

// Parse builds the outline from markdown bytes. Headings nest by level;
// each heading's destination is its byte-offset ratio into the document,
// so an unpaginated file still merges in reading order.
func Parse(src []byte, title string) *source.Document {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &source.Document{Title: title}

	type frame struct {
		entries *[]source.Entry
		level   int
	}
	stack := []frame{{entries: &doc.Entries, level: 0}}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		e := source.Entry{Title: strings.TrimSpace(string(h.Text(src)))}
		if lines := h.Lines(); lines.Len() > 0 && len(src) > 0 {
			e.Dest = source.Position{TopRatio: float64(lines.At(0).Start) / float64(len(src))}
		}

		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].entries
		*parent = append(*parent, e)
		stack = append(stack, frame{
			entries: &(*parent)[len(*parent)-1].Children,
			level:   h.Level,
		})
	}
	return doc
}
