// Package metrics exposes Prometheus collectors for the badge pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "badger"

// Cache label values.
const (
	CacheGlyph     = "glyph"
	CacheTextWidth = "text_width"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the collectors of one pipeline instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	GlyphLoads     *prometheus.CounterVec
	GlyphShared    prometheus.Counter
	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// Registration errors panic, as with prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Number of cache hits.",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Number of cache misses.",
		}, []string{"cache"}),
		GlyphLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glyph_loads_total",
			Help:      "Number of glyph asset loads by result.",
		}, []string{"result"}),
		GlyphShared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glyph_shared_total",
			Help:      "Number of glyph requests served by another request's in-flight load.",
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Number of badge renders by format and result.",
		}, []string{"format", "result"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of badge renders in seconds.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"format"}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.GlyphLoads, m.GlyphShared, m.Renders, m.RenderDuration)
	return m
}

// CacheLookup records a hit or miss on the named cache.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// GlyphLoad records the outcome of one glyph asset load.
func (m *Metrics) GlyphLoad(ok bool) {
	if m == nil {
		return
	}
	m.GlyphLoads.WithLabelValues(result(ok)).Inc()
}

// GlyphShare records a request that joined an in-flight load.
func (m *Metrics) GlyphShare() {
	if m == nil {
		return
	}
	m.GlyphShared.Inc()
}

// Render records one finished render.
func (m *Metrics) Render(format string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(format, result(ok)).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
