// Package pipeline provides the core reading pipeline for Marginalia.
//
// This package implements the complete load → tree → layout → render
// pipeline that can be used by CLI, server, and TUI components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Parse the source document's outline (PDF, Markdown, HTML, DOCX)
//  2. Tree: Merge the outline with stored annotations and moves
//  3. Layout: Compute mind map geometry for the merged tree
//  4. Render: Generate output in various formats (SVG, JSON, DOT, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage result is cached under a content-derived key.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "walden.pdf",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	doc, err := runner.Load(ctx, opts)
//
//	// Tree with existing document
//	tree, err := runner.BuildTree(ctx, doc, opts)
//
//	// Layout with existing tree
//	res, err := runner.ComputeLayout(ctx, tree, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, tree, res, opts)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pagefold/marginalia/pkg/cache"
	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Server, and TUI
// =============================================================================

// DefaultStyle is the default visual style.
const DefaultStyle = "light"

// DefaultPNGScale is the raster scale factor for PNG export. 2.0 produces
// a 2x resolution image for high-DPI displays.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	"light": true,
	"dark":  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the reading pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options
	Path    string `json:"path"`
	Format  string `json:"format,omitempty"` // source format; auto-detected when empty
	Title   string `json:"title,omitempty"`  // overrides the document's own title
	Refresh bool   `json:"refresh,omitempty"`

	// Tree options: the user's stored reading state.
	Items []outline.Item    `json:"items,omitempty"`
	Moves map[string]string `json:"moves,omitempty"`

	// Layout options
	ChapterWidth  float64  `json:"chapter_width,omitempty"`
	NoteWidth     float64  `json:"note_width,omitempty"`
	FontSize      float64  `json:"font_size,omitempty"`
	LineHeight    float64  `json:"line_height,omitempty"`
	Zoom          float64  `json:"zoom,omitempty"`
	Collapsed     []string `json:"collapsed,omitempty"`
	ExpandedNotes []string `json:"expanded_notes,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Style    string   `json:"style,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // verbose DOT labels

	// Runtime options (not serialized)
	Logger   *log.Logger     `json:"-"`
	Measurer layout.Measurer `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// DocumentInfo is the load stage's output: the source document reduced to
// what the tree build needs. It serializes cleanly, so it doubles as the
// document cache payload.
type DocumentInfo struct {
	Title   string               `json:"title"`
	Format  string               `json:"format"`
	Pages   int                  `json:"pages,omitempty"`
	Outline []outline.SourceNode `json:"outline,omitempty"`
}

// EntryCount returns the number of outline entries, nested included.
func (d *DocumentInfo) EntryCount() int {
	var count func(nodes []outline.SourceNode) int
	count = func(nodes []outline.SourceNode) int {
		n := len(nodes)
		for _, sn := range nodes {
			n += count(sn.Children)
		}
		return n
	}
	return count(d.Outline)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the parsed source outline.
	Document *DocumentInfo

	// DocHash is the content hash of the parsed document.
	DocHash string

	// Tree is the merged outline tree.
	Tree *outline.Tree

	// TreeHash is the tree's content fingerprint.
	TreeHash string

	// Layout is the computed mind map geometry.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntryCount int // source outline entries
	NodeCount  int // merged tree nodes, root included
	LoadTime   time.Duration
	TreeTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the parsed document came from cache
	TreeHit   bool // Whether the merged tree came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, json, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return fmt.Errorf("invalid style: %q (must be one of: light, dark)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple times
// has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for document loading.
func (o *Options) ValidateForLoad() error {
	if o.Path == "" {
		return fmt.Errorf("path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults materializes the effective layout metrics. Defaults
// must be explicit here so identical geometry always derives the same
// cache key, whether the caller set the values or left them zero.
func (o *Options) SetLayoutDefaults() {
	if o.ChapterWidth <= 0 {
		o.ChapterWidth = layout.DefaultChapterWidth
	}
	if o.NoteWidth <= 0 {
		o.NoteWidth = layout.DefaultNoteWidth
	}
	if o.FontSize <= 0 {
		o.FontSize = layout.DefaultFontSize
	}
	if o.LineHeight <= 0 {
		o.LineHeight = layout.DefaultLineHeight
	}
	if o.Zoom <= 0 {
		o.Zoom = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// LayoutOptions converts the pipeline options into layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	lo := layout.Options{
		Zoom:          o.Zoom,
		Measurer:      o.Measurer,
		Font:          layout.Font{Size: o.FontSize},
		LineHeight:    o.LineHeight,
		ChapterWidth:  o.ChapterWidth,
		NoteWidth:     o.NoteWidth,
		Collapsed:     make(map[string]bool, len(o.Collapsed)),
		ExpandedNotes: make(map[string]bool, len(o.ExpandedNotes)),
	}
	for _, id := range o.Collapsed {
		lo.Collapsed[id] = true
	}
	for _, id := range o.ExpandedNotes {
		lo.ExpandedNotes[id] = true
	}
	return lo
}

// StateHash fingerprints the reading state merged into the tree. Empty
// when there is no state, so stateless trees share a cache slot.
func (o *Options) StateHash() string {
	if len(o.Items) == 0 && len(o.Moves) == 0 {
		return ""
	}
	payload, err := json.Marshal(struct {
		Items []outline.Item    `json:"items"`
		Moves map[string]string `json:"moves"`
	}{o.Items, o.Moves})
	if err != nil {
		return ""
	}
	return cache.Hash(payload)
}

// TreeKeyOpts returns cache key options for the tree stage.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{StateHash: o.StateHash()}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	collapsed := append([]string(nil), o.Collapsed...)
	slices.Sort(collapsed)
	expanded := append([]string(nil), o.ExpandedNotes...)
	slices.Sort(expanded)
	return cache.LayoutKeyOpts{
		ChapterWidth: o.ChapterWidth,
		NoteWidth:    o.NoteWidth,
		FontSize:     o.FontSize,
		LineHeight:   o.LineHeight,
		Zoom:         o.Zoom,
		Collapsed:    collapsed,
		Expanded:     expanded,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Style:  o.Style,
	}
}
