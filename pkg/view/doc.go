// Package view holds the interactive state around a laid-out tree: the
// collapse set, expanded notes, pan and zoom, and the pointer gestures
// that edit the tree.
//
// # Overview
//
// [Session] is the single explicit value carrying all view state for one
// open document. It caches the last layout behind a fingerprint of its
// inputs, so hosts call [Session.Layout] freely after every event and pay
// for a recompute only when something actually changed.
//
// [Controller] turns raw pointer events into gestures: press-and-hold on
// a node arms a drag that reparents it on drop, a press on empty canvas
// pans, and anything shorter is a click. The controller takes the clock
// as an argument on every call, so tests drive it with fixed times and
// hosts drive it with real ones.
//
// # Visual Stability
//
// Collapse, expand, and zoom all reflow the canvas. The session pins one
// point through each change: the toggled node keeps its screen position,
// and zooming keeps the content under the cursor stationary. Users watch
// the tree reshape around the thing they touched instead of losing it.
//
// # Concurrency
//
// Everything here is single-threaded UI state. Nothing locks; hosts call
// from one goroutine.
package view
