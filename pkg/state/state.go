// Package state persists per-document reading state.
//
// This package defines the document state blob and a storage interface
// with implementations for different backends:
//   - memory: in-memory storage for development and tests
//   - file: JSON files in the user config directory, for the CLI
//   - redis: shared storage for multi-device setups
//   - mongo: document database storage for hosted deployments
//
// # Architecture
//
// The source outline is always rebuilt from the document file; what gets
// persisted is only what the user added on top: annotations and custom
// chapters ([outline.Item] values), parent overrides from drag moves,
// and the view state (collapse set, pan, zoom). Rebuilding the tree from
// a fresh source outline plus this blob survives re-downloads and source
// edits.
//
// # Usage
//
// Create a store:
//
//	// Tests
//	store := state.NewMemoryStore()
//
//	// CLI
//	store, err := state.NewFileStore("") // ~/.config/marginalia/documents/
//
//	// Shared
//	store, err := state.NewRedisStore(ctx, state.RedisConfig{Addr: "localhost:6379"})
//
// Load and save:
//
//	st, err := store.Get(ctx, state.DocumentID(path))
//	if st == nil {
//	    st = state.New(state.DocumentID(path), title)
//	}
//	st.Items = append(st.Items, item)
//	st.Touch()
//	store.Set(ctx, st)
package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/pagefold/marginalia/pkg/outline"
)

// ViewState is the presentation half of a document's state: what is
// collapsed, which notes are expanded, and where the canvas sits.
type ViewState struct {
	Collapsed []string `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Expanded  []string `json:"expanded,omitempty" bson:"expanded,omitempty"`
	PanX      float64  `json:"panX,omitempty" bson:"panX,omitempty"`
	PanY      float64  `json:"panY,omitempty" bson:"panY,omitempty"`
	Zoom      float64  `json:"zoom,omitempty" bson:"zoom,omitempty"`
}

// DocState is the persisted blob for one document: everything the user
// authored plus the view state. The structural outline is not stored; it
// is rebuilt from the source file and merged with this on load.
type DocState struct {
	ID        string            `json:"id" bson:"_id"`
	Title     string            `json:"title" bson:"title"`
	Items     []outline.Item    `json:"items,omitempty" bson:"items,omitempty"`
	Moves     map[string]string `json:"moves,omitempty" bson:"moves,omitempty"`
	View      ViewState         `json:"view" bson:"view"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// New creates an empty state blob for a document.
func New(id, title string) *DocState {
	now := time.Now().UTC()
	return &DocState{
		ID:        id,
		Title:     title,
		View:      ViewState{Zoom: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (d *DocState) Touch() {
	d.UpdatedAt = time.Now().UTC()
}

// Item returns the stored item with the given id.
func (d *DocState) Item(id string) (*outline.Item, bool) {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i], true
		}
	}
	return nil, false
}

// RemoveItem deletes the stored item with the given id, reporting
// whether it was present.
func (d *DocState) RemoveItem(id string) bool {
	for i := range d.Items {
		if d.Items[i].ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return true
		}
	}
	return false
}

// DocumentID derives a stable storage identifier from a document path.
// The same file yields the same id across runs; moving the file starts a
// fresh state.
func DocumentID(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])[:16]
}

// Store is the interface for document state backends.
type Store interface {
	// Get retrieves a document's state by id.
	// Returns nil, nil if no state exists for the document.
	Get(ctx context.Context, docID string) (*DocState, error)

	// Set stores a document's state.
	Set(ctx context.Context, st *DocState) error

	// Delete removes a document's state.
	Delete(ctx context.Context, docID string) error

	// List returns the ids of all stored documents.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
