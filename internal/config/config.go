// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all badger configuration.
type Config struct {
	Assets Assets `yaml:"assets"`
	Cache  Cache  `yaml:"cache"`
	Glyph  Glyph  `yaml:"glyph"`
	Font   Font   `yaml:"font"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Assets holds the local asset overlay settings.
type Assets struct {
	Dir string `yaml:"dir"` // Overrides embedded templates, glyphs and colorschemes; "" = embedded only
}

// Cache holds cache capacities.
type Cache struct {
	Glyphs     int `yaml:"glyphs"`
	TextWidths int `yaml:"text_widths"`
}

// Glyph holds glyph loader settings.
type Glyph struct {
	RetryAfter time.Duration `yaml:"retry_after"` // 0 = a failed glyph stays disabled
}

// Font holds text measurement settings.
type Font struct {
	Path string  `yaml:"path"` // "" = bundled Go Regular
	Size float64 `yaml:"size"` // Pixels per em
}

// Server holds HTTP front end settings.
type Server struct {
	Addr        string        `yaml:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Cache: Cache{
			Glyphs:     64,
			TextWidths: 256,
		},
		Glyph: Glyph{
			RetryAfter: 10 * time.Minute,
		},
		Font: Font{
			Size: 11,
		},
		Server: Server{
			Addr:        ":8080",
			ReadTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Cache.Glyphs <= 0 {
		return fmt.Errorf("config: cache.glyphs must be positive, got %d", c.Cache.Glyphs)
	}
	if c.Cache.TextWidths <= 0 {
		return fmt.Errorf("config: cache.text_widths must be positive, got %d", c.Cache.TextWidths)
	}
	if c.Glyph.RetryAfter < 0 {
		return fmt.Errorf("config: glyph.retry_after must be non-negative, got %v", c.Glyph.RetryAfter)
	}
	if c.Font.Size <= 0 {
		return fmt.Errorf("config: font.size must be positive, got %v", c.Font.Size)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr cannot be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("config: server.read_timeout must be positive, got %v", c.Server.ReadTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("config: log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: BADGER_ASSETS_DIR, BADGER_ADDR, BADGER_LOG_LEVEL,
// BADGER_FONT, BADGER_FONT_SIZE, BADGER_GLYPH_RETRY_AFTER.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("BADGER_ASSETS_DIR"); v != "" {
		c.Assets.Dir = v
	}
	if v := os.Getenv("BADGER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("BADGER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BADGER_FONT"); v != "" {
		c.Font.Path = v
	}
	if v := os.Getenv("BADGER_FONT_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: invalid BADGER_FONT_SIZE %q: %w", v, err)
		}
		c.Font.Size = size
	}
	if v := os.Getenv("BADGER_GLYPH_RETRY_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid BADGER_GLYPH_RETRY_AFTER %q: %w", v, err)
		}
		c.Glyph.RetryAfter = d
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Assets *rawAssets `yaml:"assets"`
	Cache  *rawCache  `yaml:"cache"`
	Glyph  *rawGlyph  `yaml:"glyph"`
	Font   *rawFont   `yaml:"font"`
	Server *rawServer `yaml:"server"`
	Log    *rawLog    `yaml:"log"`
}

type rawAssets struct {
	Dir *string `yaml:"dir"`
}

type rawCache struct {
	Glyphs     *int `yaml:"glyphs"`
	TextWidths *int `yaml:"text_widths"`
}

type rawGlyph struct {
	RetryAfter *time.Duration `yaml:"retry_after"`
}

type rawFont struct {
	Path *string  `yaml:"path"`
	Size *float64 `yaml:"size"`
}

type rawServer struct {
	Addr        *string        `yaml:"addr"`
	ReadTimeout *time.Duration `yaml:"read_timeout"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Assets != nil && layer.Assets.Dir != nil {
		c.Assets.Dir = *layer.Assets.Dir
	}
	if layer.Cache != nil {
		if layer.Cache.Glyphs != nil {
			c.Cache.Glyphs = *layer.Cache.Glyphs
		}
		if layer.Cache.TextWidths != nil {
			c.Cache.TextWidths = *layer.Cache.TextWidths
		}
	}
	if layer.Glyph != nil && layer.Glyph.RetryAfter != nil {
		c.Glyph.RetryAfter = *layer.Glyph.RetryAfter
	}
	if layer.Font != nil {
		if layer.Font.Path != nil {
			c.Font.Path = *layer.Font.Path
		}
		if layer.Font.Size != nil {
			c.Font.Size = *layer.Font.Size
		}
	}
	if layer.Server != nil {
		if layer.Server.Addr != nil {
			c.Server.Addr = *layer.Server.Addr
		}
		if layer.Server.ReadTimeout != nil {
			c.Server.ReadTimeout = *layer.Server.ReadTimeout
		}
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.Format != nil {
			c.Log.Format = *layer.Log.Format
		}
	}
}
