// Package glyph resolves icon identifiers into color-injected data URIs.
//
// Glyph markup is read from an asset filesystem, minified and cached. Concurrent
// requests for a glyph that is not cached yet share a single load; when the load
// settles every waiter observes the same outcome, in the order they arrived.
package glyph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/smileynet/badger/internal/lru"
	"github.com/smileynet/badger/internal/metrics"
)

// DefaultCapacity is the default number of cached glyphs.
const DefaultCapacity = 64

// DefaultRetryAfter is how long a glyph that failed to load stays invalid.
const DefaultRetryAfter = 10 * time.Minute

var (
	identifierPattern = regexp.MustCompile(`^[\w-]+$`)
	fileNamePattern   = regexp.MustCompile(`^([\w-]+)\.svg$`)
)

// ErrUnavailable indicates a glyph whose last load failed and is not yet due
// for a retry.
var ErrUnavailable = errors.New("glyph: unavailable after failed load")

// Minifier shrinks SVG markup.
type Minifier interface {
	Minify(markup string) (string, error)
}

// State describes what the loader knows about a glyph id.
type State int

const (
	// Unresolved glyphs are valid but have not been loaded.
	Unresolved State = iota
	// Pending glyphs have a load in flight.
	Pending
	// Cached glyphs are served from memory.
	Cached
	// Invalid glyphs are unknown or failed to load.
	Invalid
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Pending:
		return "pending"
	case Cached:
		return "cached"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Loader resolves glyphs from an asset filesystem holding <id>.svg files.
type Loader struct {
	fsys     fs.FS
	minifier Minifier
	cache    *lru.Cache[string, string]
	aliases  map[string]string
	valid    map[string]struct{}

	flight singleflight.Group

	mu         sync.Mutex
	pending    map[string]struct{}
	failed     map[string]time.Time
	retryAfter time.Duration
	now        func() time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Loader.
type Option func(*Loader)

// WithAliases replaces the built-in alias table.
func WithAliases(aliases map[string]string) Option {
	return func(l *Loader) {
		l.aliases = make(map[string]string, len(aliases))
		for k, v := range aliases {
			l.aliases[k] = v
		}
	}
}

// WithRetryAfter sets how long a failed glyph stays invalid before another
// load may be attempted. Zero keeps failed glyphs invalid for the lifetime
// of the Loader.
func WithRetryAfter(d time.Duration) Option {
	return func(l *Loader) { l.retryAfter = d }
}

// WithClock overrides the time source used for retry decisions.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger for load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithMetrics records cache and load activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a Loader over fsys, caching up to capacity glyphs.
// The set of valid glyph ids is scanned once from the root of fsys.
func NewLoader(fsys fs.FS, minifier Minifier, capacity int, opts ...Option) (*Loader, error) {
	cache, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("glyph: %w", err)
	}
	valid, err := scanGlyphs(fsys)
	if err != nil {
		return nil, err
	}
	l := &Loader{
		fsys:       fsys,
		minifier:   minifier,
		cache:      cache,
		aliases:    DefaultAliases(),
		valid:      valid,
		pending:    make(map[string]struct{}),
		failed:     make(map[string]time.Time),
		retryAfter: DefaultRetryAfter,
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func scanGlyphs(fsys fs.FS) (map[string]struct{}, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("glyph: scanning assets: %w", err)
	}
	valid := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := fileNamePattern.FindStringSubmatch(e.Name()); m != nil {
			valid[m[1]] = struct{}{}
		}
	}
	return valid, nil
}

// Canonical maps an alias to its glyph id. Other identifiers are returned unchanged.
func (l *Loader) Canonical(identifier string) string {
	if id, ok := l.aliases[identifier]; ok {
		return id
	}
	return identifier
}

// Resolve returns the data URI for identifier with its fill set to color, or
// "" when there is no such icon. Identifiers that are not plain glyph names,
// such as caller-supplied data URIs, are only color-injected.
//
// Resolve blocks while the glyph is loaded. A canceled ctx releases the
// caller with no icon but does not stop the shared load.
func (l *Loader) Resolve(ctx context.Context, identifier, color string) string {
	if identifier == "" {
		return ""
	}
	if !identifierPattern.MatchString(identifier) {
		return InjectColor(identifier, color)
	}

	id := l.Canonical(identifier)
	if _, ok := l.valid[id]; !ok {
		return ""
	}

	if uri, ok := l.cache.Get(id); ok {
		l.metrics.CacheLookup(metrics.CacheGlyph, true)
		return InjectColor(uri, color)
	}
	l.metrics.CacheLookup(metrics.CacheGlyph, false)

	if !l.loadable(id) {
		return ""
	}

	uri := l.await(ctx, id)
	if uri == "" {
		return ""
	}
	return InjectColor(uri, color)
}

// await joins the in-flight load for id, starting one if none exists.
// Waiter channels are delivered in the order callers joined.
func (l *Loader) await(ctx context.Context, id string) string {
	ch := l.flight.DoChan(id, func() (any, error) {
		return l.load(id)
	})
	select {
	case res := <-ch:
		if res.Shared {
			l.metrics.GlyphShare()
		}
		if res.Err != nil {
			return ""
		}
		return res.Val.(string)
	case <-ctx.Done():
		return ""
	}
}

// load reads, minifies and caches one glyph. It runs at most once at a time per id.
func (l *Loader) load(id string) (uri string, err error) {
	// A flight that settled just before this one started has already cached the glyph.
	if cached, ok := l.cache.Get(id); ok {
		return cached, nil
	}

	// A flight that failed just before this one started leaves the glyph invalid.
	l.mu.Lock()
	ok := l.loadableLocked(id)
	if ok {
		l.pending[id] = struct{}{}
	}
	l.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("glyph: loading %s: %w", id, ErrUnavailable)
	}
	defer l.clearPending(id)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("glyph: loading %s: panic: %v", id, r)
			l.fail(id, err)
		}
	}()

	raw, err := fs.ReadFile(l.fsys, id+".svg")
	if err != nil {
		err = fmt.Errorf("glyph: reading %s: %w", id, err)
		l.fail(id, err)
		return "", err
	}
	markup, err := l.minifier.Minify(string(raw))
	if err != nil {
		err = fmt.Errorf("glyph: minifying %s: %w", id, err)
		l.fail(id, err)
		return "", err
	}

	uri = DataURIPrefix + EncodeURIComponent(markup)
	l.cache.Set(id, uri)
	l.metrics.GlyphLoad(true)
	return uri, nil
}

func (l *Loader) fail(id string, err error) {
	l.mu.Lock()
	l.failed[id] = l.now()
	l.mu.Unlock()
	l.metrics.GlyphLoad(false)
	l.logger.Warn("glyph load failed", "glyph", id, "error", err)
}

func (l *Loader) clearPending(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// loadable reports whether id may be loaded, expiring an old failure when the
// retry interval has passed.
func (l *Loader) loadable(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadableLocked(id)
}

// loadableLocked is loadable with l.mu held.
func (l *Loader) loadableLocked(id string) bool {
	at, failed := l.failed[id]
	if !failed {
		return true
	}
	if l.retryAfter > 0 && l.now().Sub(at) >= l.retryAfter {
		delete(l.failed, id)
		return true
	}
	return false
}

// State reports the loader's current knowledge of identifier.
func (l *Loader) State(identifier string) State {
	id := l.Canonical(identifier)
	if _, ok := l.valid[id]; !ok {
		return Invalid
	}
	if l.cache.Contains(id) {
		return Cached
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.pending[id]; ok {
		return Pending
	}
	if at, ok := l.failed[id]; ok {
		if l.retryAfter == 0 || l.now().Sub(at) < l.retryAfter {
			return Invalid
		}
	}
	return Unresolved
}

// Valid returns the glyph ids found at construction, sorted.
func (l *Loader) Valid() []string {
	ids := make([]string, 0, len(l.valid))
	for id := range l.valid {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aliases returns a copy of the alias table.
func (l *Loader) Aliases() map[string]string {
	out := make(map[string]string, len(l.aliases))
	for k, v := range l.aliases {
		out[k] = v
	}
	return out
}
