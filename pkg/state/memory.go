package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory state store for development and tests.
//
// States are kept as JSON blobs so Get always returns a fresh copy;
// callers can mutate the result without corrupting the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
	}
}

// Get retrieves a document's state by id.
// Returns nil, nil if no state exists for the document.
func (s *MemoryStore) Get(ctx context.Context, docID string) (*DocState, error) {
	s.mu.RLock()
	data, ok := s.docs[docID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	var st DocState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// Set stores a document's state.
func (s *MemoryStore) Set(ctx context.Context, st *DocState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	s.docs[st.ID] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a document's state.
func (s *MemoryStore) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	delete(s.docs, docID)
	s.mu.Unlock()
	return nil
}

// List returns the ids of all stored documents, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

// Close discards all stored states.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.docs = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
