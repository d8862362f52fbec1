package outline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable content hash of the tree: titles, kinds,
// colors, anchors, resolved orders, and the child order all feed the hash.
// Two trees with identical display content produce identical fingerprints,
// which is what layout change detection keys on.
func (t *Tree) Fingerprint() string {
	var buf bytes.Buffer
	if err := WriteJSON(t, &buf); err != nil {
		return ""
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
