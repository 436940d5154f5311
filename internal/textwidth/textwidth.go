// Package textwidth memoizes pixel-width measurements of badge text.
package textwidth

import (
	"golang.org/x/sync/singleflight"

	"github.com/smileynet/badger/internal/lru"
	"github.com/smileynet/badger/internal/metrics"
)

// DefaultCapacity is the number of distinct strings remembered by default.
const DefaultCapacity = 256

// Measurer reports the pixel width of text under one fixed font configuration.
// Implementations must be pure: the same text always yields the same width.
type Measurer interface {
	Measure(text string) float64
}

// MeasureFunc adapts a plain function to the Measurer interface.
type MeasureFunc func(text string) float64

// Measure calls f(text).
func (f MeasureFunc) Measure(text string) float64 { return f(text) }

// Service caches widths returned by a Measurer. Because measurement is pure,
// cached widths are never invalidated.
type Service struct {
	measurer Measurer
	cache    *lru.Cache[string, float64]
	flight   singleflight.Group
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records cache hits and misses on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service that remembers up to capacity measurements.
func New(m Measurer, capacity int, opts ...Option) (*Service, error) {
	cache, err := lru.New[string, float64](capacity)
	if err != nil {
		return nil, err
	}
	s := &Service{measurer: m, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Width returns the measured width of text. The Measurer is consulted at most
// once per string while it stays cached, including under concurrent misses.
func (s *Service) Width(text string) float64 {
	if w, ok := s.cache.Get(text); ok {
		s.metrics.CacheLookup(metrics.CacheTextWidth, true)
		return w
	}
	s.metrics.CacheLookup(metrics.CacheTextWidth, false)

	v, _, _ := s.flight.Do(text, func() (any, error) {
		if w, ok := s.cache.Get(text); ok {
			return w, nil
		}
		w := s.measurer.Measure(text)
		if w < 0 {
			w = 0
		}
		s.cache.Set(text, w)
		return w, nil
	})
	return v.(float64)
}
