// Package config loads the mindlayout application config file.
//
// A config file is optional. When present it is TOML (.toml) or YAML
// (.yaml, .yml), chosen by extension, and decoded strictly: unknown keys
// are an error. Values are validated with struct tags after defaults,
// the file and MINDLAYOUT_* environment overrides have been applied.
// Command-line flags override everything and are applied by the CLI.
//
// Example (TOML):
//
//	[layout]
//	engine = "tree"
//	width = 1600
//
//	[layout.params]
//	level_spacing = 120
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "badger"
//	path = "/var/lib/mindlayout"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mindlayout/pkg/layout"
)

// Config is the root of the config file.
type Config struct {
	Layout LayoutConfig `toml:"layout" yaml:"layout"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Server ServerConfig `toml:"server" yaml:"server"`
}

// LayoutConfig holds the defaults for layout runs.
type LayoutConfig struct {
	Engine      string             `toml:"engine" yaml:"engine" validate:"required,oneof=radial tree force"`
	Width       float64            `toml:"width" yaml:"width" validate:"gt=0"`
	Height      float64            `toml:"height" yaml:"height" validate:"gt=0"`
	MinDistance float64            `toml:"min_distance" yaml:"min_distance" validate:"gte=0"`
	Params      map[string]float64 `toml:"params" yaml:"params"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend" yaml:"backend" validate:"oneof=file redis none"`
	Dir       string `toml:"dir" yaml:"dir"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int    `toml:"redis_db" yaml:"redis_db" validate:"gte=0"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

// StoreConfig selects the graph persistence backend.
type StoreConfig struct {
	Backend  string `toml:"backend" yaml:"backend" validate:"oneof=file badger mongo"`
	Path     string `toml:"path" yaml:"path" validate:"required_if=Backend badger"`
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	Database string `toml:"database" yaml:"database" validate:"required_if=Backend mongo"`
}

// ServerConfig configures `mindlayout serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	Metrics      bool          `toml:"metrics" yaml:"metrics"`
}

// Default returns the built-in configuration. Layout values match the
// pipeline defaults.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			Engine:      layout.Radial,
			Width:       layout.DefaultWidth,
			Height:      layout.DefaultHeight,
			MinDistance: layout.DefaultMinDistance,
		},
		Cache: CacheConfig{
			Backend: "file",
			Prefix:  "mindlayout:",
		},
		Store: StoreConfig{
			Backend:  "file",
			Database: "mindlayout",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			Metrics:      true,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads the config file at path on top of Default, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode decodes data into cfg according to ext (".toml", ".yaml", ".yml").
// Fields absent from data keep their current values.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported config extension %q (want .toml, .yaml or .yml)", ext)
	}
}

// applyEnv overrides selected fields from MINDLAYOUT_* variables.
// Unparsable numbers are ignored.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("MINDLAYOUT_ENGINE"); v != "" {
		cfg.Layout.Engine = v
	}
	if v := getenv("MINDLAYOUT_WIDTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Layout.Width = f
		}
	}
	if v := getenv("MINDLAYOUT_HEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Layout.Height = f
		}
	}
	if v := getenv("MINDLAYOUT_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := getenv("MINDLAYOUT_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := getenv("MINDLAYOUT_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := getenv("MINDLAYOUT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := getenv("MINDLAYOUT_MONGO_URI"); v != "" {
		cfg.Store.MongoURI = v
	}
	if v := getenv("MINDLAYOUT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
