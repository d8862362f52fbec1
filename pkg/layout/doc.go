// Package layout turns an outline tree into renderable mind-map geometry.
//
// # Overview
//
// The layout is a classic left-to-right tree: the document root on the
// left, chapters and notes fanning out to the right. Each node becomes a
// rectangular box sized from its wrapped text; parents connect to
// children with cubic curves. All coordinates are absolute and already
// zoomed, so renderers draw the result verbatim.
//
// # Basic Usage
//
//	tree, _ := outline.Build("Dune", sections, items, nil)
//	res, err := layout.Compute(tree, layout.DefaultOptions())
//	if err != nil {
//	    // render nothing; the previous frame stays up
//	}
//	for _, n := range res.Nodes {
//	    draw(n.X, n.Y, n.W, n.H, n.Lines)
//	}
//
// # Determinism
//
// Compute is a pure function of the tree, the options, and the measurer.
// Calling it twice with the same inputs yields identical geometry, which
// is what makes cached layouts and golden-file tests trustworthy.
//
// # Text Measurement
//
// Box sizing needs text widths. The package ships [RuneMeasurer], a
// cheap per-rune approximation good enough for terminal and SVG output,
// and [Memoized] to wrap any measurer with a cache. Hosts with access to
// real font metrics implement [Measurer] themselves.
//
// # Failure
//
// Compute never panics outward. Measurement failures, corrupt trees, and
// internal bugs all surface as a nil result plus an error; callers treat
// that as "no layout this frame" rather than a crash.
package layout
