// Package render turns computed mind map layouts into output formats.
//
// # Overview
//
// A renderer transforms a [layout.Result] into a final artifact. This
// package provides:
//
//   - SVG: self-contained vector drawing of the mind map
//   - JSON: geometry export for external tools and web frontends
//   - DOT: Graphviz source for node-link diagrams of the outline tree
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster image output (requires rsvg-convert)
//
// # SVG Output
//
// [RenderSVG] draws every box from the layout as a rounded rectangle with
// its wrapped text lines, and every connector as a cubic curve. Colors
// come from a [Style] palette; annotation highlight colors override the
// palette fill per node.
//
//	svg := render.RenderSVG(result,
//	    render.WithStyle(render.Dark()),
//	    render.WithTitle("Walden"),
//	)
//
// # JSON Output
//
// [RenderJSON] exports the complete layout geometry, enabling:
//
//   - Rendering in canvases that do their own drawing
//   - Caching computed layouts for fast re-rendering
//   - Diffing layouts across document revisions
//
// # DOT Output
//
// [ToDOT] emits Graphviz source for the outline tree itself, ignoring the
// computed geometry. [GraphvizSVG] renders it in-process via
// [github.com/goccy/go-graphviz]; [GraphvizPDF] and [GraphvizPNG] convert
// the result with rsvg-convert.
//
// # PDF and PNG Output
//
// [ToPDF] and [ToPNG] convert any SVG to other formats by shelling out to
// rsvg-convert. These require librsvg to be installed:
//
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [layout.Result]: github.com/pagefold/marginalia/pkg/layout.Result
package render
