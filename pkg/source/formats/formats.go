// Package formats provides the complete list of supported document
// formats.
//
// This package exists to break import cycles: the individual format
// packages (pdf, markdown, etc.) import pkg/source, so pkg/source cannot
// import them back. Consumers that need the full format list import this
// package instead.
//
// Usage:
//
//	import "github.com/pagefold/marginalia/pkg/source/formats"
//
//	doc, err := formats.Load("book.pdf")
package formats

import (
	"github.com/pagefold/marginalia/pkg/source"
	"github.com/pagefold/marginalia/pkg/source/docx"
	"github.com/pagefold/marginalia/pkg/source/htmldoc"
	"github.com/pagefold/marginalia/pkg/source/markdown"
	"github.com/pagefold/marginalia/pkg/source/pdf"
)

// All is the canonical list of supported document formats.
var All = []source.Reader{
	pdf.Reader,
	markdown.Reader,
	htmldoc.Reader,
	docx.Reader,
}

// Find returns the reader with the given format name, or nil.
func Find(name string) source.Reader {
	for _, r := range All {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// Detect returns the reader that supports the file.
func Detect(path string) (source.Reader, error) {
	return source.Detect(path, All...)
}

// Load detects the format and reads the document.
func Load(path string) (*source.Document, error) {
	return source.Load(path, All...)
}

// Supported reports whether any reader handles the file.
func Supported(path string) bool {
	_, err := Detect(path)
	return err == nil
}
