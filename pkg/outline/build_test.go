package outline

import (
	"bytes"
	"slices"
	"testing"
)

func sampleOutline() []SourceNode {
	return []SourceNode{
		{
			Title:  "Part I",
			Anchor: AnchorAt(0, 0),
			Children: []SourceNode{
				{Title: "Loomings", Anchor: AnchorAt(1, 0.1)},
				{Title: "The Carpet-Bag", Anchor: AnchorAt(4, 0.1)},
			},
		},
		{Title: "Part II", Anchor: AnchorAt(10, 0)},
	}
}

func TestBuildSourceIDs(t *testing.T) {
	tr, err := Build("Moby-Dick", sampleOutline(), nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var ids []string
	tr.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	want := []string{RootID, "src-0", "src-0.0", "src-0.1", "src-1"}
	if !slices.Equal(ids, want) {
		t.Errorf("walk ids = %v, want %v", ids, want)
	}

	if got := tr.Root().Title; got != "Moby-Dick" {
		t.Errorf("root title = %q, want Moby-Dick", got)
	}
	for _, id := range ids[1:] {
		if tr.MustNode(id).Kind != KindSource {
			t.Errorf("%s kind = %v, want %v", id, tr.MustNode(id).Kind, KindSource)
		}
	}
}

func TestBuildRefreshKeepsUserData(t *testing.T) {
	items := []Item{
		{ID: "note-a", Text: "remember this", Color: "#fc0", ParentID: "src-0.0", Anchor: AnchorAt(1, 0.5), Origin: OriginUser},
	}

	tr, err := Build("Moby-Dick", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p, _ := tr.Parent("note-a"); p != "src-0.0" {
		t.Fatalf("Parent(note-a) = %q, want src-0.0", p)
	}

	// A re-parse with retitled chapters keeps the same IDs, so the note
	// stays attached and the titles refresh.
	renamed := sampleOutline()
	renamed[0].Children[0].Title = "Chapter 1. Loomings"
	tr2, err := Build("Moby-Dick", renamed, items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p, _ := tr2.Parent("note-a"); p != "src-0.0" {
		t.Errorf("Parent(note-a) after refresh = %q, want src-0.0", p)
	}
	if got := tr2.MustNode("src-0.0").Title; got != "Chapter 1. Loomings" {
		t.Errorf("refreshed title = %q", got)
	}
	if got := tr2.MustNode("note-a").Color; got != "#fc0" {
		t.Errorf("note color = %q, want #fc0", got)
	}
}

func TestBuildMissingParentFallsBackToRoot(t *testing.T) {
	items := []Item{
		{ID: "stray", Text: "orphan", ParentID: "src-9.9"},
	}
	tr, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p, _ := tr.Parent("stray"); p != RootID {
		t.Errorf("Parent(stray) = %q, want root", p)
	}
}

func TestBuildNoteParentRedirects(t *testing.T) {
	// An item whose stored parent is a plain note attaches beside it.
	items := []Item{
		{ID: "plain", Text: "a note", ParentID: "src-0"},
		{ID: "sub", Text: "under a note", ParentID: "plain"},
	}
	tr, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p, _ := tr.Parent("sub"); p != "src-0" {
		t.Errorf("Parent(sub) = %q, want src-0", p)
	}
}

func TestBuildPromotedTitleParentsItems(t *testing.T) {
	items := []Item{
		{ID: "title-1", Text: "My own section", ChapterTitle: true, ParentID: "src-1", Origin: OriginUser},
		{ID: "child-1", Text: "nested note", ParentID: "title-1"},
	}
	tr, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := tr.MustNode("title-1").Kind; got != KindCustom {
		t.Errorf("promoted kind = %v, want %v", got, KindCustom)
	}
	if p, _ := tr.Parent("child-1"); p != "title-1" {
		t.Errorf("Parent(child-1) = %q, want title-1", p)
	}
}

func TestBuildAppliesMoves(t *testing.T) {
	items := []Item{
		{ID: "note-a", Text: "moved note", ParentID: "src-0"},
	}
	moves := map[string]string{
		"note-a": "src-1",
		"src-0":  "src-0.0", // cycle, silently skipped
	}
	tr, err := Build("doc", sampleOutline(), items, moves)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if p, _ := tr.Parent("note-a"); p != "src-1" {
		t.Errorf("Parent(note-a) = %q, want src-1", p)
	}
	if p, _ := tr.Parent("src-0"); p != RootID {
		t.Errorf("Parent(src-0) = %q, want root", p)
	}
}

func TestBuildDeterministic(t *testing.T) {
	items := []Item{
		{ID: "b", Text: "beta", Anchor: AnchorAt(2, 0.2)},
		{ID: "a", Text: "alpha", Anchor: AnchorAt(2, 0.2)},
	}
	tr1, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tr2, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if tr1.Fingerprint() != tr2.Fingerprint() {
		t.Error("identical inputs produced different trees")
	}

	tr3, err := Build("doc (annotated)", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if tr1.Fingerprint() == tr3.Fingerprint() {
		t.Error("different titles produced identical fingerprints")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	items := []Item{
		{ID: "note-a", Text: "remember", Translation: "запомни", Color: "#fc0", ParentID: "src-0",
			Anchor: AnchorAt(1, 0.25), Rects: []Rect{{X: 0.1, Y: 0.2, W: 0.5, H: 0.05}},
			Origin: OriginUser, QuestionRefs: []string{"q-1"}},
	}
	tr, err := Build("doc", sampleOutline(), items, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(tr, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}

	if back.Fingerprint() != tr.Fingerprint() {
		t.Error("round-trip changed the tree")
	}
	n := back.MustNode("note-a")
	if n.Translation != "запомни" || n.Color != "#fc0" || len(n.Rects) != 1 {
		t.Errorf("round-trip lost annotation fields: %+v", n)
	}
	if len(n.QuestionRefs) != 1 || n.QuestionRefs[0] != "q-1" {
		t.Errorf("round-trip lost question refs: %v", n.QuestionRefs)
	}
}
