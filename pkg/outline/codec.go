package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var kindToString = map[Kind]string{
	KindRoot:   "root",
	KindSource: "source",
	KindCustom: "custom",
	KindNote:   "note",
}

var kindFromString = map[string]Kind{
	"root":   KindRoot,
	"source": KindSource,
	"custom": KindCustom,
	"note":   KindNote,
}

// ParseKind resolves a serialized kind name. The second return is false
// for unknown names.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindFromString[s]
	return k, ok
}

type treeDoc struct {
	Title string     `json:"title"`
	Nodes []nodeDoc  `json:"nodes"`
}

type nodeDoc struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Translation  string   `json:"translation,omitempty"`
	Kind         string   `json:"kind"`
	Color        string   `json:"color,omitempty"`
	Parent       string   `json:"parent"`
	Order        *float64 `json:"order,omitempty"`
	Anchor       Anchor   `json:"anchor,omitempty"`
	Rects        []Rect   `json:"rects,omitempty"`
	Origin       Origin   `json:"origin,omitempty"`
	QuestionRefs []string `json:"questionRefs,omitempty"`
}

// WriteJSON encodes a tree as JSON and writes it to w.
// Nodes appear in depth-first display order with their parent links, so
// the output is stable for identical trees and can be re-imported with
// [ReadJSON] for round-trip processing.
func WriteJSON(t *Tree, w io.Writer) error {
	out := treeDoc{Title: t.Root().Title}
	t.Walk(func(n *Node, _ int) bool {
		if n.ID == RootID {
			return true
		}
		parent, _ := t.Parent(n.ID)
		out.Nodes = append(out.Nodes, nodeDoc{
			ID:           n.ID,
			Title:        n.Title,
			Translation:  n.Translation,
			Kind:         kindToString[n.Kind],
			Color:        n.Color,
			Parent:       parent,
			Order:        n.Order,
			Anchor:       n.Anchor,
			Rects:        n.Rects,
			Origin:       n.Origin,
			QuestionRefs: n.QuestionRefs,
		})
		return true
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a tree to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(t *Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}

// ReadJSON decodes a JSON tree from r.
//
// The input must be a JSON object with a "title" and a "nodes" array in
// which every node's parent precedes it (the order [WriteJSON] emits).
// A node's "parent" may be empty to attach it to the root.
//
// ReadJSON returns an error if the JSON is malformed, a node has a
// duplicate ID, or a parent reference is unknown. Errors are wrapped with
// the offending node ID. The returned tree is independent of r; ReadJSON
// does not close r.
func ReadJSON(r io.Reader) (*Tree, error) {
	var data treeDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	t := New(data.Title)
	for _, nd := range data.Nodes {
		parent := nd.Parent
		if parent == "" {
			parent = RootID
		}
		n := Node{
			ID:           nd.ID,
			Title:        nd.Title,
			Translation:  nd.Translation,
			Kind:         kindFromString[nd.Kind],
			Color:        nd.Color,
			Anchor:       nd.Anchor,
			Rects:        nd.Rects,
			Order:        nd.Order,
			Origin:       nd.Origin,
			QuestionRefs: nd.QuestionRefs,
		}
		if err := t.AddNode(n, parent); err != nil {
			return nil, fmt.Errorf("node %s: %w", nd.ID, err)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
// The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
