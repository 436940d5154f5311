package textwidth

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is the badge text size in pixels.
const DefaultFontSize = 11

// FontMeasurer measures text by summing glyph advances and kerning of an
// sfnt font at a fixed pixel size. Hinting is disabled.
type FontMeasurer struct {
	mu   sync.Mutex
	font *sfnt.Font
	buf  sfnt.Buffer
	ppem fixed.Int26_6
}

// NewFontMeasurer parses an OpenType/TrueType font for measurement at sizePx.
func NewFontMeasurer(data []byte, sizePx float64) (*FontMeasurer, error) {
	if sizePx <= 0 {
		return nil, fmt.Errorf("textwidth: font size must be positive, got %v", sizePx)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("textwidth: parsing font: %w", err)
	}
	return &FontMeasurer{font: f, ppem: fixed.Int26_6(sizePx * 64)}, nil
}

// LoadFontMeasurer reads the font at path, or uses Go Regular when path is empty.
func LoadFontMeasurer(path string, sizePx float64) (*FontMeasurer, error) {
	if path == "" {
		return NewFontMeasurer(goregular.TTF, sizePx)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("textwidth: reading font %s: %w", path, err)
	}
	return NewFontMeasurer(data, sizePx)
}

// Measure returns the advance width of text in pixels.
// Runes missing from the font are measured with the font's notdef glyph.
func (m *FontMeasurer) Measure(text string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var width fixed.Int26_6
	var prev sfnt.GlyphIndex
	for i, r := range []rune(text) {
		idx, err := m.font.GlyphIndex(&m.buf, r)
		if err != nil {
			idx = 0
		}
		if i > 0 {
			if kern, err := m.font.Kern(&m.buf, prev, idx, m.ppem, font.HintingNone); err == nil {
				width += kern
			}
		}
		if adv, err := m.font.GlyphAdvance(&m.buf, idx, m.ppem, font.HintingNone); err == nil {
			width += adv
		}
		prev = idx
	}
	return float64(width) / 64
}
