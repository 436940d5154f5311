// Package render compiles badge templates and executes them by style and format.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"text/template"
)

// DefaultStyle is used when a requested style has no template for the format.
const DefaultStyle = "default"

// ErrNoTemplate indicates neither the requested nor the default style exists
// for a format.
var ErrNoTemplate = errors.New("render: no template")

var fileNamePattern = regexp.MustCompile(`^(.+)-template\.(\w+)$`)

// Data is the fully resolved input of a badge template. Text, Links and Logo
// are already escaped for the output format.
type Data struct {
	Text        [2]string
	Links       [2]string
	ColorA      string
	ColorB      string
	Logo        string
	LogoWidth   int
	LogoPadding int
	Widths      [2]int
	Template    string
	Format      string
}

// RenderError indicates a template failed to execute.
type RenderError struct {
	Style  string
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: template %s-%s: %s", e.Style, e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

type key struct {
	style  string
	format string
}

// Renderer holds the compiled template table. It is immutable after New and
// safe for concurrent use.
type Renderer struct {
	templates map[key]*template.Template
}

// New compiles every "<style>-template.<format>" file at the root of fsys.
// Files starting with a dot and files not matching the pattern are ignored.
func New(fsys fs.FS) (*Renderer, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("render: listing templates: %w", err)
	}

	r := &Renderer{templates: make(map[key]*template.Template)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("render: reading %s: %w", name, err)
		}
		tmpl, err := template.New(name).
			Option("missingkey=error").
			Funcs(funcs).
			Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("render: parsing %s: %w", name, err)
		}
		r.templates[key{style: m[1], format: m[2]}] = tmpl
	}
	return r, nil
}

// Has reports whether a template exists for style and format.
func (r *Renderer) Has(style, format string) bool {
	_, ok := r.templates[key{style: style, format: format}]
	return ok
}

// Resolve returns the style that Render would use for style and format.
func (r *Renderer) Resolve(style, format string) string {
	if r.Has(style, format) {
		return style
	}
	return DefaultStyle
}

// Render executes the template for style and format, falling back to the
// default style. Execution failures yield a *RenderError and no output.
func (r *Renderer) Render(style, format string, data Data) (string, error) {
	style = r.Resolve(style, format)
	tmpl, ok := r.templates[key{style: style, format: format}]
	if !ok {
		return "", &RenderError{Style: style, Format: format, Err: ErrNoTemplate}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Style: style, Format: format, Err: err}
	}
	return buf.String(), nil
}

// Styles returns the styles available for format, sorted.
func (r *Renderer) Styles(format string) []string {
	var styles []string
	for k := range r.templates {
		if k.format == format {
			styles = append(styles, k.style)
		}
	}
	sort.Strings(styles)
	return styles
}
