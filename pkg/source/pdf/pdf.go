// Package pdf reads PDF outlines with ledongthuc/pdf.
package pdf

import (
	"fmt"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/source"
)

// Reader loads .pdf files.
var Reader source.Reader = reader{}

type reader struct{}

func (reader) Name() string { return "pdf" }

func (reader) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Load reads the document outline. The library exposes outline titles
// but not their destinations, so positions are recovered by locating
// each title in the per-page text rows; titles that never match stay
// unanchored and inherit a position at build time. A document without
// an outline falls back to one entry per page.
func (reader) Load(path string) (*source.Document, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open %s", path)
	}
	defer f.Close()

	doc := &source.Document{
		Title: source.TitleFromPath(path),
		Pages: r.NumPage(),
	}

	root := r.Outline()
	if len(root.Child) == 0 {
		for i := 1; i <= doc.Pages; i++ {
			doc.Entries = append(doc.Entries, source.Entry{
				Title: fmt.Sprintf("Page %d", i),
				Dest:  source.Position{Page: i - 1},
			})
		}
		return doc, nil
	}

	index := scanRows(r)
	doc.Entries = convertOutline(root.Child, index)
	return doc, nil
}

func convertOutline(items []pdflib.Outline, index *rowIndex) []source.Entry {
	entries := make([]source.Entry, 0, len(items))
	for _, item := range items {
		e := source.Entry{Title: strings.TrimSpace(item.Title)}
		if pos, ok := index.find(item.Title); ok {
			e.Dest = pos
		}
		e.Children = convertOutline(item.Child, index)
		entries = append(entries, e)
	}
	return entries
}

type rowRef struct {
	text string
	pos  source.Position
}

type rowIndex struct {
	exact map[string]source.Position
	rows  []rowRef
}

// find matches a title against the scanned rows: exact row text first,
// then the first row containing the title. Heading rows often carry
// trailing page numbers, which only the contains pass survives.
func (ix *rowIndex) find(title string) (source.Position, bool) {
	key := normalizeTitle(title)
	if key == "" {
		return source.Position{}, false
	}
	if pos, ok := ix.exact[key]; ok {
		return pos, true
	}
	for _, r := range ix.rows {
		if strings.Contains(r.text, key) {
			return r.pos, true
		}
	}
	return source.Position{}, false
}

// scanRows walks every page's text rows in reading order. Rows arrive
// top-of-page first, so the row index over the row count approximates
// the vertical ratio.
func scanRows(r *pdflib.Reader) *rowIndex {
	ix := &rowIndex{exact: make(map[string]source.Position)}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil || len(rows) == 0 {
			continue
		}
		for ri, row := range rows {
			var b strings.Builder
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteByte(' ')
			}
			text := normalizeTitle(b.String())
			if text == "" {
				continue
			}
			pos := source.Position{
				Page:     i - 1,
				TopRatio: float64(ri) / float64(len(rows)),
			}
			if _, seen := ix.exact[text]; !seen {
				ix.exact[text] = pos
			}
			ix.rows = append(ix.rows, rowRef{text: text, pos: pos})
		}
	}
	return ix
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
