package cli

import (
	"context"
	"fmt"

	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/state"
)

// =============================================================================
// State Store Factory
// =============================================================================

// newStateStore creates the document state store selected by the config.
// The zero backend is the file store under the user config directory.
func (c *CLI) newStateStore(ctx context.Context) (state.Store, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		store   state.Store
		backend string
		err     error
	)
	switch cfg.State.Backend {
	case "", "file":
		backend = "file"
		store, err = state.NewFileStore(cfg.State.Dir)
	case "memory":
		backend = "memory"
		store = state.NewMemoryStore()
	case "redis":
		backend = "redis"
		store, err = state.NewRedisStore(ctx, state.RedisConfig{
			Addr:     cfg.State.Redis.Addr,
			Password: cfg.State.Redis.Password,
			DB:       cfg.State.Redis.DB,
		})
	case "mongo":
		backend = "mongo"
		store, err = state.NewMongoStore(ctx, state.MongoConfig{
			URI:        cfg.State.Mongo.URI,
			Database:   cfg.State.Mongo.Database,
			Collection: cfg.State.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown state backend %q (valid: file, memory, redis, mongo)", cfg.State.Backend)
	}
	if err != nil {
		return nil, err
	}
	return state.Instrument(store, backend), nil
}

// mergeStoredState loads the stored document state and merges it into the
// pipeline options. Read-only commands fall back to the bare outline when
// the store is unreachable.
func (c *CLI) mergeStoredState(ctx context.Context, opts *pipeline.Options) {
	store, err := c.newStateStore(ctx)
	if err != nil {
		printWarning("State store unavailable, continuing without annotations: %v", err)
		return
	}
	defer store.Close()

	st, err := loadDocState(ctx, store, opts.Path, "")
	if err != nil {
		printWarning("State store unavailable, continuing without annotations: %v", err)
		return
	}
	applyDocState(opts, st)
}

// loadDocState fetches the stored state for a document path, returning a
// fresh blob when none exists yet.
func loadDocState(ctx context.Context, store state.Store, path, title string) (*state.DocState, error) {
	st, err := store.Get(ctx, state.DocumentID(path))
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		st = state.New(state.DocumentID(path), title)
	}
	return st, nil
}

// applyDocState copies the stored annotations and moves into the pipeline
// options so the merged tree reflects them. Stored view state fills the
// collapse fields only when no explicit override is set.
func applyDocState(opts *pipeline.Options, st *state.DocState) {
	if st == nil {
		return
	}
	opts.Items = st.Items
	opts.Moves = st.Moves
	if len(opts.Collapsed) == 0 {
		opts.Collapsed = st.View.Collapsed
	}
	if len(opts.ExpandedNotes) == 0 {
		opts.ExpandedNotes = st.View.Expanded
	}
}
