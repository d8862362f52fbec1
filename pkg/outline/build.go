package outline

import (
	"fmt"
	"strconv"
)

// sourceIDPrefix starts every outline-derived node ID. IDs encode the
// entry's index path ("src-0.2.1"), so a rebuilt tree assigns the same ID
// to the same outline position and user data keyed by ID survives while
// titles refresh.
const sourceIDPrefix = "src-"

// SourceNode is one entry of a document-supplied outline subtree, already
// positioned by the source's resolver.
type SourceNode struct {
	Title    string       `json:"title"`
	Anchor   Anchor       `json:"anchor,omitempty"`
	Children []SourceNode `json:"children,omitempty"`
}

// Item is one stored user item merged into the tree: an annotation, an
// annotation promoted to a chapter title, or a hand-created chapter.
type Item struct {
	ID           string   `json:"id" bson:"_id"`
	Text         string   `json:"text" bson:"text"`
	Translation  string   `json:"translation,omitempty" bson:"translation,omitempty"`
	Color        string   `json:"color,omitempty" bson:"color,omitempty"`
	Structural   bool     `json:"structural,omitempty" bson:"structural,omitempty"`
	ChapterTitle bool     `json:"chapterTitle,omitempty" bson:"chapterTitle,omitempty"`
	Anchor       Anchor   `json:"anchor" bson:"anchor"`
	Rects        []Rect   `json:"rects,omitempty" bson:"rects,omitempty"`
	ParentID     string   `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Order        *float64 `json:"order,omitempty" bson:"order,omitempty"`
	Origin       Origin   `json:"origin,omitempty" bson:"origin,omitempty"`
	QuestionRefs []string `json:"questionRefs,omitempty" bson:"questionRefs,omitempty"`
}

// kind maps the item's flags to its tree node kind.
func (it Item) kind() Kind {
	if it.Structural || it.ChapterTitle {
		return KindCustom
	}
	return KindNote
}

// Build normalizes a document outline and the user's stored items into
// one rooted tree, applies the user's reparent moves, and resolves sibling
// order. The result is presentation-ready: child lists are in display
// order and every node carries its resolved order key.
//
// Outline nodes get deterministic IDs from their index path. Items keep
// their stored IDs. Items whose parent no longer exists attach to the
// root rather than being dropped. Rejected moves are skipped silently.
func Build(title string, src []SourceNode, items []Item, moves map[string]string) (*Tree, error) {
	t := New(title)
	collIndex := make(map[string]int)

	var addSource func(parentID, prefix string, nodes []SourceNode) error
	addSource = func(parentID, prefix string, nodes []SourceNode) error {
		for i, sn := range nodes {
			id := prefix + strconv.Itoa(i)
			n := Node{ID: id, Title: sn.Title, Kind: KindSource, Anchor: sn.Anchor}
			if err := t.AddNode(n, parentID); err != nil {
				return fmt.Errorf("add outline node %s: %w", id, err)
			}
			collIndex[id] = i
			if err := addSource(id, id+".", sn.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := addSource(RootID, sourceIDPrefix, src); err != nil {
		return nil, err
	}

	// Items can parent other items (a note under a promoted title), so
	// attach them in passes until no more fit; survivors go to the root.
	pending := make([]int, 0, len(items))
	for i := range items {
		pending = append(pending, i)
	}
	for len(pending) > 0 {
		var deferred []int
		progressed := false
		for _, i := range pending {
			it := items[i]
			parentID := it.ParentID
			if parentID == "" {
				parentID = RootID
			}
			parent, ok := t.nodes[parentID]
			if !ok {
				deferred = append(deferred, i)
				continue
			}
			if !parent.IsStructural() {
				parentID = t.parents[parentID]
			}
			if err := t.AddNode(itemNode(it), parentID); err != nil {
				return nil, fmt.Errorf("add item %s: %w", it.ID, err)
			}
			collIndex[it.ID] = i
			progressed = true
		}
		if !progressed {
			for _, i := range deferred {
				if err := t.AddNode(itemNode(items[i]), RootID); err != nil {
					return nil, fmt.Errorf("add item %s: %w", items[i].ID, err)
				}
				collIndex[items[i].ID] = i
			}
			break
		}
		pending = deferred
	}

	t.ApplyMoves(moves)
	t.resolve(collIndex)

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("built tree invalid: %w", err)
	}
	return t, nil
}

func itemNode(it Item) Node {
	return Node{
		ID:           it.ID,
		Title:        it.Text,
		Translation:  it.Translation,
		Kind:         it.kind(),
		Color:        it.Color,
		Anchor:       it.Anchor,
		Rects:        it.Rects,
		Order:        it.Order,
		Origin:       it.Origin,
		QuestionRefs: it.QuestionRefs,
	}
}

// effectivePosition is a node's concrete document position for ranking:
// its own anchor fields where set, the parent's effective position for
// missing fields, and zero at the root.
type effectivePosition struct {
	page  int
	ratio float64
}

// resolve computes effective positions top-down, then resolves every
// parent's child order via the shared sibling rules.
func (t *Tree) resolve(collIndex map[string]int) {
	eff := make(map[string]effectivePosition, len(t.nodes))
	eff[RootID] = effectivePosition{}

	var walk func(id string)
	walk = func(id string) {
		parentPos := eff[id]
		for _, c := range t.children[id] {
			n := t.nodes[c]
			pos := parentPos
			if n.Anchor.PageIndex != nil {
				pos.page = *n.Anchor.PageIndex
			}
			if n.Anchor.TopRatio != nil {
				pos.ratio = *n.Anchor.TopRatio
			}
			eff[c] = pos
			walk(c)
		}
	}
	walk(RootID)

	for parentID := range t.nodes {
		kids := t.children[parentID]
		if len(kids) == 0 {
			continue
		}
		items := make([]mergeItem, len(kids))
		for i, c := range kids {
			n := t.nodes[c]
			items[i] = mergeItem{
				id:    c,
				page:  eff[c].page,
				ratio: eff[c].ratio,
				index: collIndex[c],
				title: n.Title,
				order: n.Order,
			}
		}
		resolved := resolveSiblings(items)
		ordered := make([]string, len(resolved))
		for i, r := range resolved {
			ordered[i] = r.id
			ord := r.order
			t.nodes[r.id].Order = &ord
		}
		t.children[parentID] = ordered
	}
}
