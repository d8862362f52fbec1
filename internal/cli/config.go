package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pagefold/marginalia/pkg/pipeline"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the optional TOML config file (~/.config/marginalia/config.toml).
// Values here seed flag defaults; explicit flags always win.
//
// Example:
//
//	[layout]
//	chapter_width = 280
//	font_size = 14
//
//	[render]
//	style = "dark"
//	formats = ["svg", "json"]
//
//	[state]
//	backend = "redis"
//
//	[state.redis]
//	addr = "localhost:6379"
//
//	[serve]
//	addr = "localhost:8652"
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	State  StateConfig  `toml:"state"`
	Serve  ServeConfig  `toml:"serve"`
}

// LayoutConfig overrides the default layout metrics.
type LayoutConfig struct {
	ChapterWidth float64 `toml:"chapter_width"`
	NoteWidth    float64 `toml:"note_width"`
	FontSize     float64 `toml:"font_size"`
	LineHeight   float64 `toml:"line_height"`
}

// RenderConfig overrides the default rendering preferences.
type RenderConfig struct {
	Style   string   `toml:"style"`
	Formats []string `toml:"formats"`
}

// StateConfig selects and configures the document state backend.
type StateConfig struct {
	// Backend is one of "file" (default), "memory", "redis", "mongo".
	Backend string `toml:"backend"`

	// Dir is the state directory for the file backend.
	// Defaults to ~/.config/marginalia/documents/.
	Dir string `toml:"dir"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig holds connection settings for the redis state backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig holds connection settings for the mongo state backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServeConfig holds preview server settings.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultServeAddr is the preview server's default listen address.
const DefaultServeAddr = "localhost:8652"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Serve: ServeConfig{Addr: DefaultServeAddr},
	}
}

// defaultConfigPath returns the standard config file location.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads the TOML config at path. An empty path means the default
// location; a missing file is not an error and yields DefaultConfig. On a
// parse error the defaults are returned alongside the error so the CLI can
// warn and continue.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultServeAddr
	}
	return cfg, nil
}

// Apply seeds pipeline options with configured values. Only zero fields are
// touched, so values already set by the caller survive.
func (c *Config) Apply(opts *pipeline.Options) {
	if opts.ChapterWidth == 0 {
		opts.ChapterWidth = c.Layout.ChapterWidth
	}
	if opts.NoteWidth == 0 {
		opts.NoteWidth = c.Layout.NoteWidth
	}
	if opts.FontSize == 0 {
		opts.FontSize = c.Layout.FontSize
	}
	if opts.LineHeight == 0 {
		opts.LineHeight = c.Layout.LineHeight
	}
	if opts.Style == "" {
		opts.Style = c.Render.Style
	}
	if len(opts.Formats) == 0 && len(c.Render.Formats) > 0 {
		opts.Formats = append([]string(nil), c.Render.Formats...)
	}
}
