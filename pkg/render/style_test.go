package render

import (
	"testing"

	"github.com/pagefold/marginalia/pkg/errors"
	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
)

func TestStyleByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "light", false},
		{"light", "light", false},
		{"dark", "dark", false},
		{"LIGHT", "light", false},
		{"sepia", "", true},
	}
	for _, tt := range tests {
		s, err := StyleByName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("StyleByName(%q) expected error", tt.name)
			} else if errors.GetCode(err) != errors.ErrCodeInvalidStyle {
				t.Errorf("StyleByName(%q) code = %v, want %v", tt.name, errors.GetCode(err), errors.ErrCodeInvalidStyle)
			}
			continue
		}
		if err != nil {
			t.Errorf("StyleByName(%q) error: %v", tt.name, err)
			continue
		}
		if s.Name != tt.want {
			t.Errorf("StyleByName(%q).Name = %q, want %q", tt.name, s.Name, tt.want)
		}
	}
}

func TestValidColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"", true},
		{"yellow", true},
		{"Yellow", true},
		{"purple", true},
		{"#fff", true},
		{"#C9E4F5", true},
		{"chartreuse", false},
		{"#12345", false},
		{"not a color", false},
	}
	for _, tt := range tests {
		if got := ValidColor(tt.color); got != tt.want {
			t.Errorf("ValidColor(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestHighlightNames(t *testing.T) {
	names := HighlightNames()
	if len(names) == 0 {
		t.Fatal("no highlight names")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}

	// Both palettes cover every name.
	dark := Dark()
	for _, name := range names {
		if _, ok := dark.highlights[name]; !ok {
			t.Errorf("dark palette missing highlight %q", name)
		}
	}
}

func TestStyleFill(t *testing.T) {
	s := Light()
	tests := []struct {
		name string
		node layout.Node
		want string
	}{
		{"root", layout.Node{Kind: outline.KindRoot}, s.RootFill},
		{"chapter", layout.Node{Kind: outline.KindSource}, s.ChapterFill},
		{"note", layout.Node{Kind: outline.KindNote}, s.NoteFill},
		{"named highlight", layout.Node{Kind: outline.KindNote, Color: "green"}, s.highlights["green"]},
		{"hex passthrough", layout.Node{Kind: outline.KindNote, Color: "#ABCDEF"}, "#ABCDEF"},
		{"unknown falls back", layout.Node{Kind: outline.KindNote, Color: "mauve"}, s.NoteFill},
	}
	for _, tt := range tests {
		if got := s.fill(tt.node); got != tt.want {
			t.Errorf("%s: fill = %q, want %q", tt.name, got, tt.want)
		}
	}
}
