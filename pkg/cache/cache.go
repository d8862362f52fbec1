// Package cache provides content-addressed caching for pipeline stages.
//
// Every stage of the reading pipeline (document parsing, tree building,
// layout, artifact rendering) can be cached independently. Keys are derived
// from the stage inputs via [Keyer], so a change anywhere upstream produces
// a new key and the stale entry simply ages out.
//
// Three implementations cover the runtime targets:
//
//   - [FileCache]: persistent cache under the XDG cache directory (CLI)
//   - [MemoryCache]: process-local cache (preview server, tests)
//   - [NullCache]: disables caching entirely (--no-cache)
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Default TTLs per pipeline stage.
//
// Parsed documents are the most expensive artifact (PDF text extraction) and
// keyed by file identity, so they live the longest. Trees and layouts are
// cheap to recompute but cached to keep repeated CLI invocations snappy.
const (
	// TTLDocument is the TTL for parsed source documents.
	TTLDocument = 7 * 24 * time.Hour

	// TTLTree is the TTL for merged outline trees.
	TTLTree = 24 * time.Hour

	// TTLLayout is the TTL for computed layouts.
	TTLLayout = 24 * time.Hour

	// TTLArtifact is the TTL for rendered artifacts (SVG, PNG, ...).
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all cache backends.
//
// Get returns (nil, false, nil) on a miss; errors are reserved for real
// storage failures. A ttl of 0 in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DocumentKeyOpts captures the inputs that identify a parsed source document.
type DocumentKeyOpts struct {
	// Format is the detected source format (pdf, markdown, html, docx).
	Format string `json:"format"`

	// ModTime is the source file modification time (unix seconds).
	ModTime int64 `json:"mod_time"`

	// Size is the source file size in bytes.
	Size int64 `json:"size"`
}

// TreeKeyOpts captures the inputs that identify a merged outline tree
// beyond the document it was built from.
type TreeKeyOpts struct {
	// StateHash fingerprints the reading state (notes, moves) merged
	// into the tree. Empty when no state is applied.
	StateHash string `json:"state_hash"`
}

// LayoutKeyOpts captures the layout parameters that affect geometry.
type LayoutKeyOpts struct {
	ChapterWidth float64  `json:"chapter_width"`
	NoteWidth    float64  `json:"note_width"`
	FontSize     float64  `json:"font_size"`
	LineHeight   float64  `json:"line_height"`
	Zoom         float64  `json:"zoom"`
	Collapsed    []string `json:"collapsed,omitempty"`
	Expanded     []string `json:"expanded,omitempty"`
}

// ArtifactKeyOpts captures the rendering parameters for an output artifact.
type ArtifactKeyOpts struct {
	// Format is the output format (svg, json, dot, png, pdf).
	Format string `json:"format"`

	// Style is the visual style (light, dark).
	Style string `json:"style"`
}

// Keyer generates cache keys for pipeline stages.
//
// Implementations must be deterministic: the same inputs always produce the
// same key, across processes and versions of the same key schema.
type Keyer interface {
	// DocumentKey generates a key for a parsed source document.
	DocumentKey(path string, opts DocumentKeyOpts) string

	// TreeKey generates a key for a merged outline tree.
	TreeKey(docHash string, opts TreeKeyOpts) string

	// LayoutKey generates a key for a computed layout.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key schema.
//
// Keys are prefixed by stage ("doc:", "tree:", "layout:", "artifact:")
// followed by a SHA-256 hash of the JSON-encoded inputs. The prefix makes
// keys greppable in cache listings; the hash keeps them filesystem-safe.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for a parsed source document.
func (k *DefaultKeyer) DocumentKey(path string, opts DocumentKeyOpts) string {
	return hashKey("doc", path, opts)
}

// TreeKey generates a key for a merged outline tree.
func (k *DefaultKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return hashKey("tree", docHash, opts)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
