// Package badge turns badge requests into rendered SVG or JSON output.
package badge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/smileynet/badger/internal/colorscheme"
	"github.com/smileynet/badger/internal/metrics"
	"github.com/smileynet/badger/internal/render"
)

// boxPadding is added to the measured width of each text box.
const boxPadding = 10

// Renderer executes a badge template selected by style and format.
type Renderer interface {
	Render(style, format string, data render.Data) (string, error)
}

// ColorResolver maps a colorscheme name to its color pair.
type ColorResolver interface {
	Resolve(name string) colorscheme.Scheme
}

// GlyphResolver turns a logo identifier into a color-injected data URI,
// returning "" when there is no such icon.
type GlyphResolver interface {
	Resolve(ctx context.Context, identifier, color string) string
}

// WidthMeasurer reports the pixel width of text.
type WidthMeasurer interface {
	Width(text string) float64
}

// Minifier shrinks SVG markup.
type Minifier interface {
	Minify(markup string) (string, error)
}

// ErrNotConfigured indicates the Generator lacks a required component.
var ErrNotConfigured = errors.New("badge: generator not configured")

// MinifyError indicates rendered SVG could not be minified.
type MinifyError struct {
	Err error
}

func (e *MinifyError) Error() string {
	return fmt.Sprintf("badge: minifying output: %s", e.Err)
}

func (e *MinifyError) Unwrap() error {
	return e.Err
}

// UnexpectedError wraps a fault recovered while generating a badge.
type UnexpectedError struct {
	Value any    // Recovered panic value.
	Stack []byte // Stack of the goroutine that panicked.
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("badge: unexpected fault: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *UnexpectedError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Generator drives the badge pipeline: colors, logo, layout, template and
// minification. It is safe for concurrent use when its components are.
type Generator struct {
	renderer Renderer
	colors   ColorResolver
	glyphs   GlyphResolver
	widths   WidthMeasurer
	minifier Minifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithColors sets the colorscheme resolver. Without one, colorscheme names are ignored.
func WithColors(c ColorResolver) Option {
	return func(g *Generator) { g.colors = c }
}

// WithGlyphs sets the logo resolver. Without one, badges render without logos.
func WithGlyphs(r GlyphResolver) Option {
	return func(g *Generator) { g.glyphs = r }
}

// WithWidths sets the text width service. It is required.
func WithWidths(w WidthMeasurer) Option {
	return func(g *Generator) { g.widths = w }
}

// WithMinifier sets the SVG minifier. Without one, SVG output is returned as rendered.
func WithMinifier(m Minifier) Option {
	return func(g *Generator) { g.minifier = m }
}

// WithLogger sets the logger for recovered faults.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithMetrics records render counts and durations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// New creates a Generator with the given renderer and options.
func New(r Renderer, opts ...Option) *Generator {
	g := &Generator{
		renderer: r,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders req. On failure the output is empty and err is a
// *ValidationError, a *render.RenderError, a *MinifyError, an *UnexpectedError
// or ErrNotConfigured. Generate never panics.
func (g *Generator) Generate(ctx context.Context, req Request) (out string, err error) {
	start := time.Now()
	format := FormatSVG
	if req.Format == FormatJSON {
		format = FormatJSON
	}

	defer func() {
		if r := recover(); r != nil {
			fault := &UnexpectedError{Value: r, Stack: debug.Stack()}
			g.logger.Error("badge generator error", "error", fault, "stack", string(fault.Stack))
			out, err = "", fault
		}
		g.metrics.Render(format, err == nil, time.Since(start))
	}()

	b, err := Normalize(req)
	if err != nil {
		return "", err
	}
	return g.generate(ctx, b)
}

func (g *Generator) generate(ctx context.Context, b Badge) (string, error) {
	if g.renderer == nil || g.widths == nil {
		return "", ErrNotConfigured
	}

	if b.Colorscheme != "" && g.colors != nil {
		scheme := g.colors.Resolve(b.Colorscheme)
		b.ColorA, b.ColorB = scheme.ColorA, scheme.ColorB
	}

	logoWidth, logoPadding := 0, 0
	if b.Logo != "" {
		logoWidth, logoPadding = DefaultLogoWidth, LogoPadding
	}
	if b.LogoWidth > 0 {
		logoWidth = b.LogoWidth
	}

	logo := ""
	if b.Logo != "" && g.glyphs != nil {
		logo = g.glyphs.Resolve(ctx, b.Logo, b.LogoColor)
	}

	if b.Text[0] == "" {
		logoPadding = 0
	}

	widths := [2]int{
		int(g.widths.Width(b.Text[0])) + boxPadding + logoWidth + logoPadding,
		int(g.widths.Width(b.Text[1])) + boxPadding,
	}

	esc := escaperFor(b.Format)
	data := render.Data{
		Text:        [2]string{esc(b.Text[0]), esc(b.Text[1])},
		Links:       [2]string{esc(b.Links[0]), esc(b.Links[1])},
		ColorA:      esc(b.ColorA),
		ColorB:      esc(b.ColorB),
		Logo:        esc(logo),
		LogoWidth:   logoWidth,
		LogoPadding: logoPadding,
		Widths:      widths,
		Template:    b.Template,
		Format:      b.Format,
	}

	out, err := g.renderer.Render(b.Template, b.Format, data)
	if err != nil {
		return "", err
	}
	if b.Format == FormatJSON || g.minifier == nil {
		return out, nil
	}

	out, err = g.minifier.Minify(out)
	if err != nil {
		return "", &MinifyError{Err: err}
	}
	return out, nil
}
