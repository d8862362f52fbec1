package layout

import "strings"

// ellipsis marks a clamped note's last visible line.
const ellipsis = ".."

// wrapText breaks text into lines no wider than maxWidth. Words split on
// whitespace; a single word wider than the limit is hard-broken by rune.
// Empty text yields one empty line so every box has a height.
func wrapText(text string, maxWidth float64, m Measurer, font Font) ([]string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return []string{""}, nil
	}

	var lines []string
	var line string
	for _, word := range fields {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		w, err := m.Width(candidate, font)
		if err != nil {
			return nil, err
		}
		if w <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		// The word alone may still overflow; hard-break it.
		rest, err := breakWord(word, maxWidth, m, font)
		if err != nil {
			return nil, err
		}
		lines = append(lines, rest[:len(rest)-1]...)
		line = rest[len(rest)-1]
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines, nil
}

// breakWord splits a single word into rune chunks that fit maxWidth.
// Always returns at least one chunk; a chunk keeps at least one rune even
// when that rune alone overflows.
func breakWord(word string, maxWidth float64, m Measurer, font Font) ([]string, error) {
	var chunks []string
	var chunk []rune
	for _, r := range word {
		candidate := append(chunk, r)
		w, err := m.Width(string(candidate), font)
		if err != nil {
			return nil, err
		}
		if w > maxWidth && len(chunk) > 0 {
			chunks = append(chunks, string(chunk))
			chunk = []rune{r}
			continue
		}
		chunk = candidate
	}
	chunks = append(chunks, string(chunk))
	return chunks, nil
}

// clampLines cuts lines down to maxLines and appends the ellipsis to the
// tail of the last kept line. Returns the kept lines and whether anything
// was cut.
func clampLines(lines []string, maxLines int) ([]string, bool) {
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines, false
	}
	kept := make([]string, maxLines)
	copy(kept, lines[:maxLines])
	kept[maxLines-1] += ellipsis
	return kept, true
}
