package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pagefold/marginalia/pkg/cache"
	"github.com/pagefold/marginalia/pkg/source"
	"github.com/pagefold/marginalia/pkg/source/formats"
)

// Load parses the source document's outline. The reader is chosen by the
// explicit format option, falling back to filename detection.
func Load(ctx context.Context, opts Options) (*DocumentInfo, error) {
	reader, err := pickReader(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := reader.Load(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.Path, err)
	}

	info := &DocumentInfo{
		Title:   doc.Title,
		Format:  reader.Name(),
		Pages:   doc.Pages,
		Outline: source.Convert(doc, nil),
	}
	if info.Title == "" {
		info.Title = source.TitleFromPath(opts.Path)
	}
	if opts.Title != "" {
		info.Title = opts.Title
	}
	return info, nil
}

func pickReader(opts Options) (source.Reader, error) {
	if opts.Format != "" {
		if r := formats.Find(opts.Format); r != nil {
			return r, nil
		}
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}
	return formats.Detect(opts.Path)
}

// documentKey derives the load stage's cache key from the file's identity
// on disk. A missing file still yields a key; the load itself will report
// the real error.
func documentKey(keyer cache.Keyer, opts Options) string {
	keyOpts := cache.DocumentKeyOpts{Format: opts.Format}
	if fi, err := os.Stat(opts.Path); err == nil {
		keyOpts.ModTime = fi.ModTime().Unix()
		keyOpts.Size = fi.Size()
	}
	return keyer.DocumentKey(opts.Path, keyOpts)
}

func marshalDocument(d *DocumentInfo) ([]byte, error) {
	return json.Marshal(d)
}

func unmarshalDocument(data []byte) (*DocumentInfo, error) {
	var d DocumentInfo
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &d, nil
}
