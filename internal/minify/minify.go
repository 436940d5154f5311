// Package minify shrinks SVG markup without changing how it renders.
package minify

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

// MediaType is the media type of SVG documents.
const MediaType = "image/svg+xml"

// SVG minifies SVG markup. It is safe for concurrent use.
type SVG struct {
	m *minify.M
}

// New creates an SVG minifier.
func New() *SVG {
	m := minify.New()
	m.AddFunc(MediaType, svg.Minify)
	return &SVG{m: m}
}

// Minify returns the minified form of markup.
func (s *SVG) Minify(markup string) (string, error) {
	out, err := s.m.String(MediaType, markup)
	if err != nil {
		return "", fmt.Errorf("minify: %w", err)
	}
	return out, nil
}
