// Package pkg provides the core libraries for Marginalia document mind maps.
//
// # Overview
//
// Marginalia keeps, per document, a mind map of the document's chapter
// outline merged with the reader's own annotations. The pkg directory is
// organized into four main areas:
//
//  1. [outline] / [layout] / [view] - Core domain logic (tree merge, geometry, interaction)
//  2. [source] - Document format adapters (PDF, Markdown, HTML, DOCX)
//  3. [state] / [cache] - Persistence and caching backends
//  4. [render] / [pipeline] - Output sinks and orchestration
//
// # Architecture
//
// The typical data flow through Marginalia:
//
//	Document file (PDF, Markdown, HTML, DOCX)
//	         ↓
//	    [source] package (outline extraction + anchor resolution)
//	         ↓
//	    [outline] package (merge with annotations, ordering, moves)
//	         ↓
//	    [layout] package (box geometry + connector edges)
//	         ↓
//	    [render] package (SVG, PNG, PDF, DOT, JSON output)
//
// # Quick Start
//
// Build a document tree and render it as a mind map:
//
//	import (
//	    "github.com/pagefold/marginalia/pkg/layout"
//	    "github.com/pagefold/marginalia/pkg/outline"
//	    "github.com/pagefold/marginalia/pkg/render"
//	    "github.com/pagefold/marginalia/pkg/source"
//	    "github.com/pagefold/marginalia/pkg/source/formats"
//	)
//
//	// 1. Read the document outline
//	doc, _ := formats.Load("walden.md")
//	nodes := source.Convert(doc, nil)
//
//	// 2. Merge with the reader's stored annotations
//	tree, _ := outline.Build(doc.Title, nodes, items, moves)
//
//	// 3. Compute the mind-map geometry
//	res, _ := layout.Compute(tree, layout.DefaultOptions())
//
//	// 4. Render to SVG
//	svg := render.RenderSVG(res)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [outline] - The rooted document tree. Merges a source outline with
// annotation items into one stable sequence using fractional order keys,
// applies reparent moves with cycle rejection, and supports promote and
// demote of annotations to chapter titles.
//
// [layout] - Pure left-to-right mind-map layout: text wrapping against a
// memoizing measurer, per-kind box sizing, subtree band stacking, and
// cubic Bézier connector edges. Also the JSON codec for layout results.
//
// [view] - Explicit interaction session over a computed layout: collapse
// and expand with anchor preservation, pan and zoom, hit testing, and the
// press-hold-drag-release gesture controller used by the TUI.
//
// ## Document Sources
//
// [source] - Reader interface plus format adapters in subpackages: pdf
// (embedded outline walk with per-page positions), markdown (heading
// levels via goldmark), htmldoc (h1-h6), docx (heading styles). The
// [source/formats] registry maps file extensions to readers.
//
// ## Persistence
//
// [state] - The per-document state blob (annotations, custom nodes,
// reparent overrides, view state) behind a get/set store interface.
// Four backends: memory (testing), file (XDG data dir), Redis, MongoDB.
//
// [cache] - Content-addressed pipeline cache keyed by stage-scoped
// hashes with per-stage TTLs. FileCache for the CLI, MemoryCache for
// testing, NullCache to disable caching.
//
// ## Output
//
// [render] - Rendering sinks for a computed layout: the SVG mind-map
// writer, DOT export with Graphviz-rendered SVG/PNG/PDF, and the JSON
// geometry export for embedding hosts. Color styles live here too.
//
// [pipeline] - The load → tree → layout → render pipeline used by every
// CLI command and the preview server, with per-stage caching, timing
// stats, and validated options.
//
// ## Supporting Packages
//
// [errors] - Structured errors with machine-readable codes.
//
// [observability] - Global registry of stage and cache hooks with no-op
// defaults.
//
// [buildinfo] - Version information injected at build time.
//
// # Common Workflows
//
// Load stored annotations for a document:
//
//	store, _ := state.NewFileStore("")
//	st, _ := store.Get(ctx, state.DocumentID("walden.md"))
//
// Drive an interactive session:
//
//	sess := view.NewSession(layout.DefaultOptions())
//	sess.ToggleCollapse(tree, "src-0")
//	res, _ := sess.Layout(tree)
//
// Run the full pipeline with caching:
//
//	c, _ := cache.NewFileCache("")
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{Path: "walden.pdf"})
//
// Export through Graphviz:
//
//	dot := render.ToDOT(tree, render.DOTOptions{})
//	png, _ := render.GraphvizPNG(dot, 2.0)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/outline/...     # Specific package
//	go test -run Example          # Examples only
//
// [outline]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/outline
// [layout]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/layout
// [view]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/view
// [source]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/source
// [source/formats]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/source/formats
// [state]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/state
// [cache]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/cache
// [render]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/errors
// [observability]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/pagefold/marginalia/pkg/buildinfo
package pkg
