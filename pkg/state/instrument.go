package state

import (
	"context"
	"time"

	"github.com/pagefold/marginalia/pkg/observability"
)

// InstrumentedStore wraps a Store and reports every operation to the
// registered [observability.StoreHooks]. The wrapped store is otherwise
// unchanged, including its nil-on-missing Get semantics.
type InstrumentedStore struct {
	inner   Store
	backend string
}

// Instrument wraps store with observability reporting.
// The backend name ("memory", "file", "redis", "mongo") tags every event.
func Instrument(store Store, backend string) *InstrumentedStore {
	return &InstrumentedStore{inner: store, backend: backend}
}

// Get retrieves a document's state by id.
func (s *InstrumentedStore) Get(ctx context.Context, docID string) (*DocState, error) {
	start := time.Now()
	st, err := s.inner.Get(ctx, docID)
	if err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "get", err)
		return nil, err
	}
	observability.Store().OnStoreGet(ctx, s.backend, docID, st != nil, time.Since(start))
	return st, nil
}

// Set stores a document's state.
func (s *InstrumentedStore) Set(ctx context.Context, st *DocState) error {
	start := time.Now()
	if err := s.inner.Set(ctx, st); err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "set", err)
		return err
	}
	observability.Store().OnStoreSet(ctx, s.backend, st.ID, time.Since(start))
	return nil
}

// Delete removes a document's state.
func (s *InstrumentedStore) Delete(ctx context.Context, docID string) error {
	if err := s.inner.Delete(ctx, docID); err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "delete", err)
		return err
	}
	return nil
}

// List returns the ids of all stored documents.
func (s *InstrumentedStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.inner.List(ctx)
	if err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "list", err)
		return nil, err
	}
	return ids, nil
}

// Close releases backend resources.
func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

// Ensure InstrumentedStore implements Store.
var _ Store = (*InstrumentedStore)(nil)
