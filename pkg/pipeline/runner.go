package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pagefold/marginalia/pkg/cache"
	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/observability"
	"github.com/pagefold/marginalia/pkg/outline"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → tree → layout → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	hooks := observability.Pipeline()

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, opts.Path, opts.Format)
	doc, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	hooks.OnLoadComplete(ctx, opts.Path, opts.Format, entryCountOf(doc), time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.EntryCount = doc.EntryCount()
	result.CacheInfo.LoadHit = loadHit

	if data, err := marshalDocument(doc); err == nil {
		result.DocHash = cache.Hash(data)
	}

	r.Logger.Info("loaded document",
		"format", doc.Format,
		"entries", result.Stats.EntryCount,
		"pages", doc.Pages,
		"duration", result.Stats.LoadTime)

	// Stage 2: Tree
	treeStart := time.Now()
	hooks.OnTreeStart(ctx, result.DocHash)
	tree, treeHit, err := r.BuildTreeWithCacheInfo(ctx, doc, opts)
	hooks.OnTreeComplete(ctx, result.DocHash, nodeCountOf(tree), time.Since(treeStart), err)
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}
	result.Tree = tree
	result.TreeHash = tree.Fingerprint()
	result.Stats.TreeTime = time.Since(treeStart)
	result.Stats.NodeCount = tree.NodeCount()
	result.CacheInfo.TreeHit = treeHit

	r.Logger.Info("merged outline",
		"nodes", result.Stats.NodeCount,
		"items", len(opts.Items),
		"duration", result.Stats.TreeTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, tree.NodeCount())
	res, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, tree, opts)
	hooks.OnLayoutComplete(ctx, time.Since(layoutStart), err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"boxes", len(res.Nodes),
		"extent", fmt.Sprintf("%.0fx%.0f", res.Width, res.Height),
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, tree, res, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo parses the source document with caching and returns
// cache hit info.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*DocumentInfo, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := documentKey(r.Keyer, opts)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			doc, err := unmarshalDocument(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				return doc, true, nil // Cache hit
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "document")

	doc, err := Load(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := marshalDocument(doc); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLDocument)
		observability.Cache().OnCacheSet(ctx, "document", len(data))
	}

	return doc, false, nil // Cache miss
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*DocumentInfo, error) {
	doc, _, err := r.LoadWithCacheInfo(ctx, opts)
	return doc, err
}

// BuildTreeWithCacheInfo merges the document outline with the stored
// reading state, with caching, and returns cache hit info.
func (r *Runner) BuildTreeWithCacheInfo(ctx context.Context, doc *DocumentInfo, opts Options) (*outline.Tree, bool, error) {
	r.applyLogger(&opts)

	docData, err := marshalDocument(doc)
	if err != nil {
		return nil, false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	cacheKey := r.Keyer.TreeKey(cache.Hash(docData), opts.TreeKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			tree, err := outline.ReadJSON(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "tree")
				return tree, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rebuild
		}
	}
	observability.Cache().OnCacheMiss(ctx, "tree")

	tree, err := outline.Build(doc.Title, doc.Outline, opts.Items, opts.Moves)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := outline.WriteJSON(tree, &buf); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLTree)
		observability.Cache().OnCacheSet(ctx, "tree", buf.Len())
	}

	return tree, false, nil // Cache miss
}

// BuildTree is a convenience wrapper that calls BuildTreeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) BuildTree(ctx context.Context, doc *DocumentInfo, opts Options) (*outline.Tree, error) {
	tree, _, err := r.BuildTreeWithCacheInfo(ctx, doc, opts)
	return tree, err
}

// ComputeLayoutWithCacheInfo computes the mind map geometry with caching
// and returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, tree *outline.Tree, opts Options) (*layout.Result, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	cacheKey := r.Keyer.LayoutKey(tree.Fingerprint(), opts.LayoutKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		cached, err := layout.UnmarshalResult(data)
		if err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return cached, true, nil // Cache hit
		}
		// If deserialization fails, fall through to recompute
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := layout.Compute(tree, opts.LayoutOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := layout.MarshalResult(res); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return res, false, nil // Cache miss
}

// ComputeLayout is a convenience wrapper that calls
// ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, tree *outline.Tree, opts Options) (*layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, tree, opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, tree *outline.Tree, res *layout.Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from layout data
	layoutData, err := layout.MarshalResult(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	rendered, err := Render(tree, res, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, tree *outline.Tree, res *layout.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, tree, res, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func entryCountOf(d *DocumentInfo) int {
	if d == nil {
		return 0
	}
	return d.EntryCount()
}

func nodeCountOf(t *outline.Tree) int {
	if t == nil {
		return 0
	}
	return t.NodeCount()
}
