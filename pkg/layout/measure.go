package layout

import "unicode"

// Font describes the text style a measurement is taken for.
type Font struct {
	Family string
	Size   float64
	Bold   bool
}

// Measurer resolves the rendered width of a text run. Implementations
// back real font metrics (a host UI toolkit) or estimates; the layout
// treats the measurer as an oracle and memoizes around it.
type Measurer interface {
	Width(text string, font Font) (float64, error)
}

// Character width classes as fractions of the font size. The base ratio
// matches the SVG renderer's font so estimated wrapping stays close to
// what browsers draw.
const (
	charWidthBase   = 0.55
	charWidthNarrow = 0.30
	charWidthWide   = 0.85
	charWidthFull   = 1.00
	boldWidthFactor = 1.05
)

const (
	narrowChars = "iIjlt.,:;'|!`"
	wideChars   = "mwMW@%&"
)

// RuneMeasurer estimates text width from per-rune width classes. It is
// the default measurer: deterministic, allocation-free, and good enough
// for wrapping prose into mind-map boxes.
type RuneMeasurer struct{}

// Width implements [Measurer]. It never fails.
func (RuneMeasurer) Width(text string, font Font) (float64, error) {
	var units float64
	for _, r := range text {
		units += runeWidthUnits(r)
	}
	w := units * font.Size
	if font.Bold {
		w *= boldWidthFactor
	}
	return w, nil
}

func runeWidthUnits(r rune) float64 {
	for _, n := range narrowChars {
		if r == n {
			return charWidthNarrow
		}
	}
	for _, w := range wideChars {
		if r == w {
			return charWidthWide
		}
	}
	if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
		return charWidthFull
	}
	return charWidthBase
}

type measureKey struct {
	text string
	font Font
}

// memoMeasurer caches widths per (text, font). The layout is
// single-threaded, so no locking.
type memoMeasurer struct {
	inner Measurer
	seen  map[measureKey]float64
}

// Memoized wraps a measurer with a width cache. Wrapping measures the
// same prefixes repeatedly, so even the cheap estimator benefits; for
// measurers that call into a real text stack the cache is what keeps
// recomputation affordable.
func Memoized(m Measurer) Measurer {
	return &memoMeasurer{inner: m, seen: make(map[measureKey]float64)}
}

func (m *memoMeasurer) Width(text string, font Font) (float64, error) {
	key := measureKey{text: text, font: font}
	if w, ok := m.seen[key]; ok {
		return w, nil
	}
	w, err := m.inner.Width(text, font)
	if err != nil {
		return 0, err
	}
	m.seen[key] = w
	return w, nil
}
