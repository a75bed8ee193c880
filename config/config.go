// Package config loads pxdoc tool configuration from YAML files.
//
// Every field has a default, so an empty or missing file is a valid
// configuration:
//
//	store:
//	  path: art.db
//	  codec: yaml
//	log:
//	  level: debug
//	  format: json
//	editor:
//	  history_limit: 200
//	export:
//	  thumbnail: 128
//	  scaler: catmull-rom
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/export"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/store"
)

// Config is the top-level configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Editor EditorConfig `yaml:"editor"`
	Export ExportConfig `yaml:"export"`
}

// StoreConfig controls the document database.
type StoreConfig struct {
	Path        string `yaml:"path"`
	Codec       string `yaml:"codec"` // patch log codec: json | yaml
	CacheBytes  int    `yaml:"cache_bytes"`
	BusyTimeout int    `yaml:"busy_timeout_ms"`
}

// LogConfig controls the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// EditorConfig holds editor options.
type EditorConfig struct {
	HistoryLimit int `yaml:"history_limit"`
	MaxDimension int `yaml:"max_dimension"`
	LoadWorkers  int `yaml:"load_workers"`
}

// ExportConfig controls image export.
type ExportConfig struct {
	Thumbnail int    `yaml:"thumbnail"`
	Scaler    string `yaml:"scaler"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file and fills in defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	c.applyDefaults()
	return &c, c.Validate()
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "pxdoc.db"
	}
	if c.Store.Codec == "" {
		c.Store.Codec = "json"
	}
	if c.Store.CacheBytes == 0 {
		c.Store.CacheBytes = store.DefaultCacheBytes
	}
	if c.Store.BusyTimeout <= 0 {
		c.Store.BusyTimeout = 10_000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Editor.HistoryLimit == 0 {
		c.Editor.HistoryLimit = pxdoc.DefaultHistoryLimit
	}
	if c.Editor.MaxDimension <= 0 {
		c.Editor.MaxDimension = canvas.MaxDimension
	}
	if c.Editor.LoadWorkers == 0 {
		c.Editor.LoadWorkers = pxdoc.DefaultLoadWorkers
	}
	if c.Export.Thumbnail <= 0 {
		c.Export.Thumbnail = 256
	}
	if c.Export.Scaler == "" {
		c.Export.Scaler = export.CatmullRom.String()
	}
}

// Validate checks that names refer to known codecs, levels and scalers.
func (c *Config) Validate() error {
	if _, err := patch.LookupCodec(c.Store.Codec); err != nil {
		return fmt.Errorf("config: store.codec: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q (use text or json)", c.Log.Format)
	}
	if c.Editor.MaxDimension > canvas.MaxDimension {
		return fmt.Errorf("config: editor.max_dimension %d exceeds %d", c.Editor.MaxDimension, canvas.MaxDimension)
	}
	if _, err := export.ParseScaler(c.Export.Scaler); err != nil {
		return fmt.Errorf("config: export.scaler: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// EditorOptions converts the editor section into pxdoc options.
func (c *Config) EditorOptions() []pxdoc.Option {
	return []pxdoc.Option{
		pxdoc.WithHistoryLimit(c.Editor.HistoryLimit),
		pxdoc.WithMaxDimension(c.Editor.MaxDimension),
		pxdoc.WithLoadWorkers(c.Editor.LoadWorkers),
	}
}

// StoreOptions converts the store section into store options.
func (c *Config) StoreOptions() []store.Option {
	return []store.Option{
		store.WithCodec(c.Store.Codec),
		store.WithCacheBytes(c.Store.CacheBytes),
		store.WithBusyTimeout(c.Store.BusyTimeout),
		store.WithMkdirAll(),
	}
}
