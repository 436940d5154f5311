package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/smileynet/badger"
	"github.com/smileynet/badger/internal/badge"
	"github.com/smileynet/badger/internal/colorscheme"
	"github.com/smileynet/badger/internal/config"
	"github.com/smileynet/badger/internal/glyph"
	"github.com/smileynet/badger/internal/logging"
	"github.com/smileynet/badger/internal/metrics"
	"github.com/smileynet/badger/internal/minify"
	"github.com/smileynet/badger/internal/render"
	"github.com/smileynet/badger/internal/server"
	"github.com/smileynet/badger/internal/swatch"
	"github.com/smileynet/badger/internal/textwidth"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command. Empty values leave the
// configured setting unchanged.
type Globals struct {
	Config    string `help:"Config file layered over the user and project config." placeholder:"PATH"`
	Assets    string `help:"Directory overriding the embedded templates, glyphs and colorschemes." placeholder:"DIR"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." placeholder:"LEVEL"`
	LogFormat string `help:"Log format (text, json)." placeholder:"FORMAT"`
}

// CLI is the top-level command structure for badger.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Render  RenderCmd        `cmd:"" help:"Render a badge to stdout or a file."`
	Serve   ServeCmd         `cmd:"" help:"Serve badges over HTTP."`
	Colors  ColorsCmd        `cmd:"" help:"List colorschemes."`
	Glyphs  GlyphsCmd        `cmd:"" help:"List logo glyphs and aliases."`
}

// generator abstracts badge.Generator for testing.
type generator interface {
	Generate(ctx context.Context, req badge.Request) (string, error)
}

// RenderCmd renders one badge.
type RenderCmd struct {
	Label     string   `arg:"" help:"Left-hand text."`
	Value     string   `arg:"" help:"Right-hand text."`
	Color     string   `help:"Colorscheme name." short:"c"`
	ColorA    string   `name:"color-a" help:"Label background, ignored when --color is set."`
	ColorB    string   `name:"color-b" help:"Value background, ignored when --color is set."`
	Style     string   `help:"Template style." short:"s" default:"default"`
	Format    string   `help:"Output format." enum:"svg,json" default:"svg"`
	Logo      string   `help:"Glyph id or alias, or a data URI."`
	LogoColor string   `help:"Logo fill color."`
	LogoWidth int      `help:"Logo width in pixels."`
	Link      []string `help:"Link for the label, then the value box. Repeatable." sep:"none"`
	Output    string   `help:"Write to a file instead of stdout." short:"o" placeholder:"PATH"`
}

// Run executes the render command.
func (r *RenderCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	a, err := newApp(cfg, os.Stderr, nil)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if r.Output == "" {
		return r.run(context.Background(), os.Stdout, a.generator)
	}
	f, err := os.Create(r.Output)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := r.run(context.Background(), f, a.generator); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// run renders the badge with the given generator, enabling testable wiring.
func (r *RenderCmd) run(ctx context.Context, w io.Writer, gen generator) error {
	out, err := gen.Generate(ctx, r.request())
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return fmt.Errorf("render: writing output: %w", err)
	}
	return nil
}

func (r *RenderCmd) request() badge.Request {
	return badge.Request{
		Text:        []any{r.Label, r.Value},
		Colorscheme: r.Color,
		ColorA:      r.ColorA,
		ColorB:      r.ColorB,
		Logo:        r.Logo,
		LogoColor:   r.LogoColor,
		LogoWidth:   r.LogoWidth,
		Template:    r.Style,
		Format:      r.Format,
		Links:       r.Link,
	}
}

// ServeCmd runs the HTTP front end.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.addr." placeholder:"HOST:PORT"`
}

// Run executes the serve command until interrupted.
func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a, err := newApp(cfg, os.Stderr, reg)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.generator,
		server.WithGatherer(reg),
		server.WithLogger(a.logger),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// ColorsCmd lists the colorscheme table.
type ColorsCmd struct {
	Plain bool `help:"Force plain text output even if stdout is a TTY."`
}

// Run executes the colors command.
func (c *ColorsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	assets, err := badger.LoadAssets(cfg.Assets.Dir)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	colors, err := colorscheme.Parse(assets.Colorschemes)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	return c.run(os.Stdout, colors)
}

// run lists src on w, enabling testable wiring.
func (c *ColorsCmd) run(w io.Writer, src swatch.Source) error {
	if err := swatch.Write(swatch.Options{Writer: w, ForcePlain: c.Plain}, src); err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	return nil
}

// GlyphsCmd lists the glyph ids and aliases.
type GlyphsCmd struct{}

// glyphLister abstracts glyph.Loader listing for testing.
type glyphLister interface {
	Valid() []string
	Aliases() map[string]string
}

// Run executes the glyphs command.
func (c *GlyphsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("glyphs: %w", err)
	}
	a, err := newApp(cfg, os.Stderr, nil)
	if err != nil {
		return fmt.Errorf("glyphs: %w", err)
	}
	return c.run(os.Stdout, a.glyphs)
}

// run prints every glyph id, then each alias with its target.
func (c *GlyphsCmd) run(w io.Writer, l glyphLister) error {
	for _, id := range l.Valid() {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return fmt.Errorf("glyphs: %w", err)
		}
	}

	aliases := l.Aliases()
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s -> %s\n", name, aliases[name]); err != nil {
			return fmt.Errorf("glyphs: %w", err)
		}
	}
	return nil
}

// loadConfig loads layered config from user, project and flag paths, then
// applies env and flag overrides.
func loadConfig(g *Globals) (*config.Config, error) {
	paths := []string{
		os.ExpandEnv("$HOME/.config/badger/config.yaml"),
		".badger/config.yaml",
	}
	if g.Config != "" {
		if _, err := os.Stat(g.Config); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		paths = append(paths, g.Config)
	}

	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	g.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *Globals) apply(cfg *config.Config) {
	if g.Assets != "" {
		cfg.Assets.Dir = g.Assets
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
}

// app holds the wired badge pipeline.
type app struct {
	logger    *slog.Logger
	glyphs    *glyph.Loader
	generator *badge.Generator
}

// newApp wires the pipeline from cfg. Logs go to logw. Metrics are
// registered on reg when it is not nil.
func newApp(cfg *config.Config, logw io.Writer, reg prometheus.Registerer) (*app, error) {
	logger, err := logging.New(logw, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	assets, err := badger.LoadAssets(cfg.Assets.Dir)
	if err != nil {
		return nil, err
	}
	colors, err := colorscheme.Parse(assets.Colorschemes)
	if err != nil {
		return nil, err
	}
	svgMin := minify.New()

	glyphs, err := glyph.NewLoader(assets.Glyphs, svgMin, cfg.Cache.Glyphs,
		glyph.WithRetryAfter(cfg.Glyph.RetryAfter),
		glyph.WithLogger(logger),
		glyph.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	measurer, err := textwidth.LoadFontMeasurer(cfg.Font.Path, cfg.Font.Size)
	if err != nil {
		return nil, err
	}
	widths, err := textwidth.New(measurer, cfg.Cache.TextWidths, textwidth.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(assets.Templates)
	if err != nil {
		return nil, err
	}

	gen := badge.New(renderer,
		badge.WithColors(colors),
		badge.WithGlyphs(glyphs),
		badge.WithWidths(widths),
		badge.WithMinifier(svgMin),
		badge.WithLogger(logger),
		badge.WithMetrics(m),
	)
	logger.Debug("badge pipeline ready",
		"glyphs", len(glyphs.Valid()),
		"styles", renderer.Styles(badge.FormatSVG),
	)
	return &app{logger: logger, glyphs: glyphs, generator: gen}, nil
}

const (
	exitSuccess = 0
	exitRender  = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		ve *badge.ValidationError
		re *render.RenderError
		me *badge.MinifyError
		ue *badge.UnexpectedError
	)
	if errors.As(err, &ve) || errors.As(err, &re) || errors.As(err, &me) || errors.As(err, &ue) {
		return exitRender
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Description("Render status badges as SVG or JSON."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
