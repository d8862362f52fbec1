// Package outline provides the rooted document tree that merges a
// document's own chapter outline with the reader's annotations and
// custom nodes.
//
// # Overview
//
// Marginalia shows each document as a mind-map: the chapter structure on
// the left spine, the reader's notes and highlights hanging off the
// chapters they belong to. This package owns that tree - building it from
// heterogeneous inputs, keeping identities stable across rebuilds, and
// ordering siblings with fractional keys so user rearrangements survive
// the document outline changing underneath them.
//
// # Basic Usage
//
// Build a tree from a parsed outline and stored items with [Build], or
// assemble one by hand with [New] and [Tree.AddNode]:
//
//	t := outline.New("Moby-Dick")
//	t.AddNode(outline.Node{ID: "c1", Title: "Loomings", Kind: outline.KindSource}, outline.RootID)
//	t.AddNode(outline.Node{ID: "n1", Title: "call me?", Kind: outline.KindNote}, "c1")
//
// Query structure with [Tree.Children], [Tree.Parent], and [Tree.Walk].
// Use [Tree.Validate] to verify integrity after deserializing state.
//
// # Sibling Order
//
// Every node carries an optional fractional order key. Resolution ranks
// keyless siblings by their document position (page, then vertical ratio,
// then original collection position) and back-fills the rank as their
// key; explicit keys always win. [Tree.InsertAfter] allocates the
// midpoint between two neighbors and [Tree.Append] allocates past the
// end, so inserting never rewrites existing keys. Keys squeezed closer
// than 1e-6 are re-spread during resolution.
//
// # Moves
//
// [Tree.Reparent] moves a single node and reports why a move is refused
// (self-parenting, cycle-forming targets, annotation targets).
// [Tree.ApplyMoves] applies a stored move set and skips rejected entries
// silently, which is the behavior interactive drags rely on.
//
// # Concurrency
//
// Tree instances are not safe for concurrent use. The interactive session
// owns its tree; hosts that share trees across goroutines must
// synchronize access themselves.
package outline
