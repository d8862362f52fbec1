// Package docx reads Word document outlines from heading-styled
// paragraphs.
package docx

import (
	"os"
	"path/filepath"
	"strings"

	docxlib "github.com/fumiama/go-docx"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/source"
)

// Reader loads .docx files.
var Reader source.Reader = reader{}

type reader struct{}

func (reader) Name() string { return "docx" }

func (reader) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".docx")
}

// Load walks the document body. Paragraphs styled Heading1..Heading6
// become outline entries nested by level; each entry's destination is
// the paragraph-order ratio, a stand-in for a page position in a format
// that reflows.
func (reader) Load(path string) (*source.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "stat %s", path)
	}
	parsed, err := docxlib.Parse(f, info.Size())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse %s", path)
	}

	doc := &source.Document{Title: source.TitleFromPath(path)}
	items := parsed.Document.Body.Items
	total := len(items)

	type frame struct {
		entries *[]source.Entry
		level   int
	}
	stack := []frame{{entries: &doc.Entries, level: 0}}

	for i, item := range items {
		para, ok := item.(*docxlib.Paragraph)
		if !ok {
			continue
		}
		level := headingLevel(para)
		if level == 0 {
			continue
		}
		title := paragraphText(para)
		if title == "" {
			continue
		}

		e := source.Entry{Title: title}
		if total > 0 {
			e.Dest = source.Position{TopRatio: float64(i) / float64(total)}
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
	}
	return doc, nil
}

// headingLevel maps Word's built-in heading style names to a level.
// Both the "Heading1" and localized "heading 1" spellings occur in the
// wild.
func headingLevel(para *docxlib.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func paragraphText(para *docxlib.Paragraph) string {
	var b strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docxlib.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docxlib.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
