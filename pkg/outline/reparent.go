package outline

import (
	"maps"
	"slices"
)

// Reparent moves a node under a new parent, appending it to the new
// parent's child list. The node's order key is left untouched; the next
// order resolution places it among its new siblings.
//
// Returns ErrRootImmutable for the root, ErrUnknownNode if either end is
// missing, ErrSelfParent, ErrWouldCycle if the target lies inside the
// node's own subtree, or ErrNoteParent if the target is a plain
// annotation. Moving a node to its current parent is a no-op.
func (t *Tree) Reparent(id, newParentID string) error {
	if id == RootID {
		return ErrRootImmutable
	}
	if _, ok := t.nodes[id]; !ok {
		return ErrUnknownNode
	}
	target, ok := t.nodes[newParentID]
	if !ok {
		return ErrUnknownNode
	}
	if id == newParentID {
		return ErrSelfParent
	}
	if !target.IsStructural() {
		return ErrNoteParent
	}
	if t.IsAncestor(id, newParentID) {
		return ErrWouldCycle
	}

	oldParent := t.parents[id]
	if oldParent == newParentID {
		return nil
	}

	t.children[oldParent] = slices.DeleteFunc(t.children[oldParent], func(s string) bool { return s == id })
	t.children[newParentID] = append(t.children[newParentID], id)
	t.parents[id] = newParentID
	return nil
}

// ApplyMoves applies a set of user moves (node ID → desired parent ID) on
// top of the tree. Moves are applied in sorted node-ID order so the result
// is independent of map iteration. Rejected moves - unknown IDs, self
// parents, annotation targets, cycle-forming targets - are silently
// skipped. Applying the same map twice yields the same tree.
func (t *Tree) ApplyMoves(moves map[string]string) {
	for _, id := range slices.Sorted(maps.Keys(moves)) {
		_ = t.Reparent(id, moves[id])
	}
}
