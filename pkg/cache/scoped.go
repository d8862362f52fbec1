package cache

// ScopedKeyer wraps a Keyer with a prefix to isolate cache namespaces.
// The preview server uses one scope per served document so entries from
// different documents can be cleared independently.
//
// Example usage:
//
//	// Keys scoped to one document
//	docKeyer := NewScopedKeyer(NewDefaultKeyer(), "doc:ab12cd34:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DocumentKey generates a prefixed key for parsed source documents.
func (k *ScopedKeyer) DocumentKey(path string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(path, opts)
}

// TreeKey generates a prefixed key for merged outline trees.
func (k *ScopedKeyer) TreeKey(docHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(docHash, opts)
}

// LayoutKey generates a prefixed key for computed layouts.
func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
