package outline

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
)

// Order keys are plain floats allocated by midpoint insertion. When
// repeated midpoints squeeze two resolved keys closer than the collision
// epsilon, resolution re-spreads the later key by the bump amount, keeping
// the visible sequence strict without rewriting stored keys.
const (
	orderCollisionEpsilon = 1e-6
	orderCollisionBump    = 1e-4
)

// mergeItem is one sibling candidate during order resolution. Page and
// ratio are the item's effective document position: its own anchor where
// present, otherwise the parent's effective anchor, otherwise (0, 0).
type mergeItem struct {
	id    string
	page  int
	ratio float64
	index int // position in the item's original collection
	title string
	order *float64 // explicit key, nil to back-fill from rank
}

// rankCmp orders items by document position first, then original
// collection position. Titles (then IDs) break exact position ties so the
// rank is total and stable across rebuilds.
func rankCmp(a, b mergeItem) int {
	if c := cmp.Compare(a.page, b.page); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ratio, b.ratio); c != 0 {
		return c
	}
	if c := cmp.Compare(a.index, b.index); c != 0 {
		return c
	}
	if c := cmp.Compare(a.title, b.title); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

// resolvedSibling is the outcome of order resolution for one sibling.
type resolvedSibling struct {
	id    string
	order float64
}

// resolveSiblings turns sibling candidates into the final display
// sequence with strictly increasing resolved order keys:
//
//  1. Items are ranked by document position (rankLess).
//  2. Items without an explicit key get their rank as the key, so items
//     the user never reordered follow the document.
//  3. The final sequence sorts by (key, rank).
//  4. Keys closer than the collision epsilon are bumped apart.
func resolveSiblings(items []mergeItem) []resolvedSibling {
	if len(items) == 0 {
		return nil
	}

	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, rankCmp)

	rank := make(map[string]int, len(ranked))
	for i, it := range ranked {
		rank[it.id] = i
	}

	type keyed struct {
		id    string
		order float64
		rank  int
	}
	seq := make([]keyed, len(items))
	for i, it := range items {
		k := keyed{id: it.id, rank: rank[it.id]}
		if it.order != nil {
			k.order = *it.order
		} else {
			k.order = float64(k.rank)
		}
		seq[i] = k
	}
	slices.SortStableFunc(seq, func(a, b keyed) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(a.rank, b.rank)
	})

	out := make([]resolvedSibling, len(seq))
	prev := math.Inf(-1)
	for i, k := range seq {
		ord := k.order
		if ord-prev < orderCollisionEpsilon {
			ord = prev + orderCollisionBump
		}
		out[i] = resolvedSibling{id: k.id, order: ord}
		prev = ord
	}
	return out
}

// resolvedOrders returns the effective order keys of a node's children in
// list order. Children without a resolved key (hand-built trees) fall back
// to their list position.
func (t *Tree) resolvedOrders(parentID string) []float64 {
	kids := t.children[parentID]
	out := make([]float64, len(kids))
	for i, id := range kids {
		if n := t.nodes[id]; n != nil && n.Order != nil {
			out[i] = *n.Order
		} else {
			out[i] = float64(i)
		}
	}
	return out
}

// InsertAfter creates a node of the given kind directly after an existing
// sibling. The new key is the midpoint between the sibling's resolved key
// and the next one; after the last sibling it is the sibling's key plus
// one. The node gets a fresh UUID and is spliced into the parent's child
// list at the matching position.
func (t *Tree) InsertAfter(parentID string, kind Kind, siblingID string) (*Node, error) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, ErrUnknownParent
	}
	if !parent.IsStructural() {
		return nil, ErrNoteParent
	}
	kids := t.children[parentID]
	pos := -1
	for i, id := range kids {
		if id == siblingID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, ErrUnknownNode
	}

	orders := t.resolvedOrders(parentID)
	var ord float64
	if pos == len(kids)-1 {
		ord = orders[pos] + 1
	} else {
		ord = (orders[pos] + orders[pos+1]) / 2
	}

	n := &Node{ID: uuid.NewString(), Kind: kind, Order: &ord}
	t.nodes[n.ID] = n
	t.parents[n.ID] = parentID
	kids = append(kids[:pos+1], append([]string{n.ID}, kids[pos+1:]...)...)
	t.children[parentID] = kids
	return n, nil
}

// Append creates a node of the given kind as the parent's last child. The
// new key is the maximum resolved sibling key plus one, or zero when the
// parent has no children.
func (t *Tree) Append(parentID string, kind Kind) (*Node, error) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, ErrUnknownParent
	}
	if !parent.IsStructural() {
		return nil, ErrNoteParent
	}

	ord := 0.0
	if orders := t.resolvedOrders(parentID); len(orders) > 0 {
		max := orders[0]
		for _, o := range orders[1:] {
			if o > max {
				max = o
			}
		}
		ord = max + 1
	}

	n := &Node{ID: uuid.NewString(), Kind: kind, Order: &ord}
	t.nodes[n.ID] = n
	t.parents[n.ID] = parentID
	t.children[parentID] = append(t.children[parentID], n.ID)
	return n, nil
}
