package layout

import (
	"encoding/json"
	"fmt"

	"github.com/pagefold/marginalia/pkg/outline"
)

type resultDoc struct {
	Nodes      []nodeDoc `json:"nodes"`
	Edges      []Edge    `json:"edges,omitempty"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	FontSize   float64   `json:"fontSize"`
	LineHeight float64   `json:"lineHeight"`
	PaddingX   float64   `json:"paddingX"`
	PaddingY   float64   `json:"paddingY"`
}

type nodeDoc struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Color      string   `json:"color,omitempty"`
	Lines      []string `json:"lines,omitempty"`
	SubLines   []string `json:"subLines,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	W          float64  `json:"w"`
	H          float64  `json:"h"`
	Collapsed  bool     `json:"collapsed,omitempty"`
	ChildCount int      `json:"childCount,omitempty"`
	Clamped    bool     `json:"clamped,omitempty"`
}

// MarshalResult encodes a computed layout for caching. [UnmarshalResult]
// restores it, index included, so a cached layout behaves exactly like a
// freshly computed one.
func MarshalResult(r *Result) ([]byte, error) {
	doc := resultDoc{
		Edges:      r.Edges,
		Width:      r.Width,
		Height:     r.Height,
		FontSize:   r.FontSize,
		LineHeight: r.LineHeight,
		PaddingX:   r.PaddingX,
		PaddingY:   r.PaddingY,
		Nodes:      make([]nodeDoc, len(r.Nodes)),
	}
	for i, n := range r.Nodes {
		doc.Nodes[i] = nodeDoc{
			ID:         n.ID,
			Kind:       n.Kind.String(),
			Color:      n.Color,
			Lines:      n.Lines,
			SubLines:   n.SubLines,
			X:          n.X,
			Y:          n.Y,
			W:          n.W,
			H:          n.H,
			Collapsed:  n.Collapsed,
			ChildCount: n.ChildCount,
			Clamped:    n.Clamped,
		}
	}
	return json.Marshal(doc)
}

// UnmarshalResult decodes a layout produced by [MarshalResult].
func UnmarshalResult(data []byte) (*Result, error) {
	var doc resultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	r := &Result{
		Edges:      doc.Edges,
		Width:      doc.Width,
		Height:     doc.Height,
		FontSize:   doc.FontSize,
		LineHeight: doc.LineHeight,
		PaddingX:   doc.PaddingX,
		PaddingY:   doc.PaddingY,
		Nodes:      make([]Node, len(doc.Nodes)),
		index:      make(map[string]int, len(doc.Nodes)),
	}
	for i, nd := range doc.Nodes {
		kind, ok := outline.ParseKind(nd.Kind)
		if !ok {
			return nil, fmt.Errorf("decode layout: node %s has unknown kind %q", nd.ID, nd.Kind)
		}
		r.Nodes[i] = Node{
			ID:         nd.ID,
			Kind:       kind,
			Color:      nd.Color,
			Lines:      nd.Lines,
			SubLines:   nd.SubLines,
			X:          nd.X,
			Y:          nd.Y,
			W:          nd.W,
			H:          nd.H,
			Collapsed:  nd.Collapsed,
			ChildCount: nd.ChildCount,
			Clamped:    nd.Clamped,
		}
		r.index[nd.ID] = i
	}
	return r, nil
}
