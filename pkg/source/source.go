// Package source defines how document files become outline input.
//
// Each supported format lives in its own subpackage (pdf, markdown,
// htmldoc, docx) and exports a [Reader]. Readers produce a [Document]:
// the raw outline hierarchy plus whatever positional destinations the
// format carries. [Convert] then turns a Document into outline source
// nodes, mapping destinations to page anchors through a [Resolver] so
// this package never owns viewer-specific position logic.
package source

import (
	"path/filepath"
	"strings"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Position is a resolved location inside a document: a zero-based page
// and a vertical ratio in [0, 1] from the page top.
type Position struct {
	Page     int     `json:"page"`
	TopRatio float64 `json:"topRatio"`
}

// Entry is one raw outline row: a title, an opaque destination for the
// resolver, and nested children.
type Entry struct {
	Title    string
	Dest     any
	Children []Entry
}

// Document is a source document's outline with page metadata.
type Document struct {
	Title   string
	Pages   int // page count, or 0 for unpaginated formats
	Entries []Entry
}

// Resolver converts a format-specific destination into a position.
// Returning false means the entry has no resolvable anchor; the outline
// falls back to the parent's anchor during the build.
type Resolver func(dest any) (Position, bool)

// ResolvePosition is the resolver for readers that resolve eagerly and
// store a ready [Position] as the destination. It is the default when
// [Convert] is given a nil resolver.
func ResolvePosition(dest any) (Position, bool) {
	p, ok := dest.(Position)
	return p, ok
}

// Reader loads one document format.
type Reader interface {
	// Load reads the document at path and returns its outline.
	Load(path string) (*Document, error)

	// Supports reports whether this reader handles the given filename.
	Supports(filename string) bool

	// Name returns the format identifier, e.g. "pdf".
	Name() string
}

// Detect returns the first reader that supports the file. The path is
// matched by basename, so callers can pass full paths.
func Detect(path string, readers ...Reader) (Reader, error) {
	name := filepath.Base(path)
	for _, r := range readers {
		if r.Supports(name) {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format: %s", name)
}

// Load detects the format and reads the document in one step.
func Load(path string, readers ...Reader) (*Document, error) {
	r, err := Detect(path, readers...)
	if err != nil {
		return nil, err
	}
	return r.Load(path)
}

// Convert turns a document's entries into outline source nodes, resolving
// each destination into a page anchor. A nil resolver uses
// [ResolvePosition]. Entries whose destination does not resolve get a
// zero anchor and inherit their position from the parent at build time.
func Convert(doc *Document, resolve Resolver) []outline.SourceNode {
	if doc == nil {
		return nil
	}
	if resolve == nil {
		resolve = ResolvePosition
	}
	return convertEntries(doc.Entries, resolve)
}

func convertEntries(entries []Entry, resolve Resolver) []outline.SourceNode {
	if len(entries) == 0 {
		return nil
	}
	nodes := make([]outline.SourceNode, 0, len(entries))
	for _, e := range entries {
		n := outline.SourceNode{Title: strings.TrimSpace(e.Title)}
		if pos, ok := resolve(e.Dest); ok {
			n.Anchor = outline.AnchorAt(pos.Page, clampRatio(pos.TopRatio))
		}
		n.Children = convertEntries(e.Children, resolve)
		nodes = append(nodes, n)
	}
	return nodes
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// TitleFromPath derives a document title from a file path by dropping
// the directory and extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
