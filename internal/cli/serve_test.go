package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pagefold/marginalia/pkg/cache"
	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/state"
)

// newTestServer builds a preview server over a small markdown document
// with one stored annotation.
func newTestServer(t *testing.T) *previewServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "walden.md")
	content := `# Walden

## Economy

When I wrote the following pages.

## Sounds

### Morning air
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	store := state.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	st := state.New(state.DocumentID(path), "Walden")
	st.Items = []outline.Item{{ID: "note-1", Text: "simplify, simplify", Color: "yellow"}}
	if err := store.Set(context.Background(), st); err != nil {
		t.Fatal(err)
	}

	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
	t.Cleanup(func() { runner.Close() })

	opts := pipeline.Options{Path: path}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()

	logger := log.NewWithOptions(io.Discard, log.Options{})
	return newPreviewServer(runner, store, opts, logger)
}

func get(t *testing.T, srv *previewServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health body = %q, want ok status", rec.Body.String())
	}
}

func TestServeTree(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/tree.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tree.json = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Walden") {
		t.Errorf("tree body should contain the document title")
	}
	if !strings.Contains(body, "simplify, simplify") {
		t.Errorf("tree body should contain the stored annotation")
	}
}

func TestServeLayout(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/layout.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /layout.json = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"nodes"`) {
		t.Errorf("layout body should contain nodes")
	}
	if !strings.Contains(body, `"edges"`) {
		t.Errorf("layout body should contain edges")
	}
}

func TestServeSVG(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /svg = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("svg body should contain an svg element")
	}
}

func TestServeIndex(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Walden") {
		t.Errorf("index should contain the document title")
	}
	if !strings.Contains(body, "<svg") {
		t.Errorf("index should embed the svg inline")
	}
}

func TestServeWithoutState(t *testing.T) {
	srv := newTestServer(t)
	srv.store = nil

	rec := get(t, srv, "/tree.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tree.json without state = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "simplify, simplify") {
		t.Errorf("stateless tree should not contain stored annotations")
	}
}

func TestServeMissingDocument(t *testing.T) {
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
	defer runner.Close()

	opts := pipeline.Options{Path: filepath.Join(t.TempDir(), "absent.md")}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()

	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := newPreviewServer(runner, nil, opts, logger)

	rec := get(t, srv, "/svg")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET /svg on a missing document = %d, want 500", rec.Code)
	}
}
