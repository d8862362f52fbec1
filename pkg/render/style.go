package render

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Style is a named color palette for mind map rendering. All values are
// CSS color strings.
type Style struct {
	Name string

	Background string

	RootFill   string
	RootStroke string
	RootText   string

	ChapterFill   string
	ChapterStroke string
	ChapterText   string

	NoteFill   string
	NoteStroke string
	NoteText   string

	SubText   string // translation lines under the note text
	Edge      string // connector curves
	Badge     string // collapsed child-count badge
	BadgeText string

	highlights map[string]string
}

// Light returns the default paper-toned palette.
func Light() Style {
	return Style{
		Name:          "light",
		Background:    "#FAFAF7",
		RootFill:      "#2F3437",
		RootStroke:    "#2F3437",
		RootText:      "#FFFFFF",
		ChapterFill:   "#FFFFFF",
		ChapterStroke: "#D8D5CC",
		ChapterText:   "#2F3437",
		NoteFill:      "#FFF9E0",
		NoteStroke:    "#E8DFB8",
		NoteText:      "#4A4636",
		SubText:       "#8A8677",
		Edge:          "#B8B4A8",
		Badge:         "#2F3437",
		BadgeText:     "#FFFFFF",
		highlights: map[string]string{
			"yellow": "#FFE8A3",
			"green":  "#CDEBC5",
			"blue":   "#C9E4F5",
			"pink":   "#F7D4E0",
			"purple": "#E2D4F0",
			"orange": "#FFD9B8",
		},
	}
}

// Dark returns the palette for dark surfaces.
func Dark() Style {
	return Style{
		Name:          "dark",
		Background:    "#1E2124",
		RootFill:      "#E8E6E0",
		RootStroke:    "#E8E6E0",
		RootText:      "#1E2124",
		ChapterFill:   "#2A2E32",
		ChapterStroke: "#4A4F55",
		ChapterText:   "#E8E6E0",
		NoteFill:      "#3A3A2E",
		NoteStroke:    "#5C5C44",
		NoteText:      "#E8E2C8",
		SubText:       "#9A968A",
		Edge:          "#5A5F66",
		Badge:         "#E8E6E0",
		BadgeText:     "#1E2124",
		highlights: map[string]string{
			"yellow": "#6B5D23",
			"green":  "#3A5A34",
			"blue":   "#2E4A5E",
			"pink":   "#5E3A4A",
			"purple": "#4A3A5E",
			"orange": "#6B4A28",
		},
	}
}

// Styles lists the built-in style names.
func Styles() []string { return []string{"light", "dark"} }

// StyleByName resolves a style name. The empty string means light.
func StyleByName(name string) (Style, error) {
	switch strings.ToLower(name) {
	case "", "light":
		return Light(), nil
	case "dark":
		return Dark(), nil
	default:
		return Style{}, errors.New(errors.ErrCodeInvalidStyle,
			"unknown style %q (valid: %s)", name, strings.Join(Styles(), ", "))
	}
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// HighlightNames returns the named annotation highlight colors, sorted.
// Every style maps these names to palette-appropriate fills.
func HighlightNames() []string {
	names := make([]string, 0, len(Light().highlights))
	for name := range Light().highlights {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidColor reports whether the value is usable as an annotation
// highlight: a named highlight or a #rgb/#rrggbb hex value.
func ValidColor(c string) bool {
	if c == "" {
		return true
	}
	if _, ok := Light().highlights[strings.ToLower(c)]; ok {
		return true
	}
	return hexColorRe.MatchString(c)
}

// fill resolves a node's box fill. Annotation highlight colors override
// the kind's palette fill; unknown values fall back to the palette.
func (s Style) fill(n layout.Node) string {
	if n.Color != "" {
		if hex, ok := s.highlights[strings.ToLower(n.Color)]; ok {
			return hex
		}
		if hexColorRe.MatchString(n.Color) {
			return n.Color
		}
	}
	switch n.Kind {
	case outline.KindRoot:
		return s.RootFill
	case outline.KindNote:
		return s.NoteFill
	default:
		return s.ChapterFill
	}
}

func (s Style) stroke(n layout.Node) string {
	switch n.Kind {
	case outline.KindRoot:
		return s.RootStroke
	case outline.KindNote:
		return s.NoteStroke
	default:
		return s.ChapterStroke
	}
}

func (s Style) textColor(n layout.Node) string {
	switch n.Kind {
	case outline.KindRoot:
		return s.RootText
	case outline.KindNote:
		return s.NoteText
	default:
		return s.ChapterText
	}
}
