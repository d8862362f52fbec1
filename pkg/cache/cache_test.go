package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss before Set")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(data) != "value" {
		t.Errorf("Get data = %q, want %q", data, "value")
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	_, hit, _ := c.Get(ctx, "key")
	if !hit {
		t.Error("zero-TTL entry should never expire")
	}
}

func TestFileCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	_ = c.Set(ctx, "key", []byte("value"), time.Hour)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ := c.Get(ctx, "key")
	if hit {
		t.Error("deleted entry should be a miss")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing key error: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	defer c.Close()

	_ = c.Set(ctx, "key", []byte("value"), time.Hour)

	// Corrupt the entry on disk
	hash := Hash([]byte("key"))
	path := filepath.Join(dir, hash[:2], hash[2:]+".json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("corrupting entry: %v", err)
	}

	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("corrupt entry should be a miss")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	_ = c.Set(ctx, "fresh", []byte("a"), time.Hour)
	_ = c.Set(ctx, "stale1", []byte("b"), -time.Second)
	_ = c.Set(ctx, "stale2", []byte("c"), -time.Second)

	removed, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune removed = %d, want 2", removed)
	}

	_, hit, _ := c.Get(ctx, "fresh")
	if !hit {
		t.Error("fresh entry should survive Prune")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	_ = c.Set(ctx, "key", []byte("value"), time.Hour)
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || string(data) != "value" {
		t.Errorf("Get = (%q, %v), want (value, true)", data, hit)
	}

	// Expired entries miss
	_ = c.Set(ctx, "old", []byte("x"), -time.Second)
	_, hit, _ = c.Get(ctx, "old")
	if hit {
		t.Error("expired entry should be a miss")
	}

	if n := c.Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}

	_ = c.Delete(ctx, "key")
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestMemoryCacheCopiesData(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	buf := []byte("value")
	_ = c.Set(ctx, "key", buf, 0)
	buf[0] = 'X'

	data, _, _ := c.Get(ctx, "key")
	if string(data) != "value" {
		t.Errorf("cached data mutated by caller: %q", data)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Different file identity produces different document keys
	dk1 := k.DocumentKey("book.pdf", DocumentKeyOpts{Format: "pdf", ModTime: 100, Size: 4096})
	dk2 := k.DocumentKey("book.pdf", DocumentKeyOpts{Format: "pdf", ModTime: 200, Size: 4096})
	if dk1 == dk2 {
		t.Error("different ModTime should produce different document keys")
	}

	// State hash feeds the tree key
	tk1 := k.TreeKey("hash123", TreeKeyOpts{StateHash: "aaa"})
	tk2 := k.TreeKey("hash123", TreeKeyOpts{StateHash: "bbb"})
	if tk1 == tk2 {
		t.Error("different StateHash should produce different tree keys")
	}

	// Layout metrics feed the layout key
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{ChapterWidth: 260, FontSize: 13})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{ChapterWidth: 300, FontSize: 13})
	if lk1 == lk2 {
		t.Error("different LayoutKeyOpts should produce different keys")
	}

	// Format and style feed the artifact key
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Style: "light"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Style: "light"})
	if ak1 == ak2 {
		t.Error("different ArtifactKeyOpts should produce different keys")
	}

	// Stage prefixes are stable
	if got := dk1[:4]; got != "doc:" {
		t.Errorf("DocumentKey prefix = %q, want doc:", got)
	}
	if got := ak1[:9]; got != "artifact:" {
		t.Errorf("ArtifactKey prefix = %q, want artifact:", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "doc:ab12:")

	key := scoped.TreeKey("hash123", TreeKeyOpts{})
	if len(key) < 9 || key[:9] != "doc:ab12:" {
		t.Errorf("ScopedKeyer TreeKey should be prefixed: %s", key)
	}

	// The inner key survives under the prefix
	if key[9:] != inner.TreeKey("hash123", TreeKeyOpts{}) {
		t.Error("ScopedKeyer should delegate to inner keyer")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should fall back to DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	want := "prefix:" + NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if key != want {
		t.Errorf("key = %s, want %s", key, want)
	}
}
