package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateTitle validates a node or annotation title.
// It rejects titles that could break serialized state or rendered output.
//
// The validation rules are intentionally conservative:
//   - No empty titles
//   - No control characters (except tab, which wrapping treats as a space)
//   - Maximum length of 2048 characters
//
// Display truncation is the layout engine's job, not validation's.
func ValidateTitle(title string) error {
	if title == "" {
		return New(ErrCodeInvalidInput, "title cannot be empty")
	}

	if len(title) > 2048 {
		return New(ErrCodeInvalidInput, "title too long (max 2048 characters)")
	}

	for _, r := range title {
		if unicode.IsControl(r) && r != '\t' {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}

	return nil
}

// hexColorRegex matches #RGB and #RRGGBB color strings.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates an annotation color string.
// Accepts hex colors (#RGB, #RRGGBB) and a small set of named palette keys.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}

	if hexColorRegex.MatchString(color) {
		return nil
	}

	switch color {
	case "yellow", "green", "blue", "pink", "orange", "purple":
		return nil
	}

	return New(ErrCodeInvalidColor, "invalid color: %q", color)
}

// ValidateDocumentID validates a document identifier used as a state key.
// It prevents path traversal when the identifier becomes part of a file
// path or URL segment.
//
// Validation rules:
//   - Cannot be empty
//   - Maximum length of 256 characters
//   - No null bytes or control characters
//   - No path separators or traversal sequences
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPath, "document id cannot be empty")
	}

	const maxIDLength = 256
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidPath, "document id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "document id contains invalid characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidPath, "document id contains invalid characters: %q", pattern)
		}
	}

	return nil
}
