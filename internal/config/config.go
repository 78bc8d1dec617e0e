// Package config loads mapty settings from flags, environment variables
// (MAPTY_*) and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendValkey = "valkey"
)

// Position sources
const (
	SourceAuto  = "auto"
	SourceFixed = "fixed"
	SourceBLE   = "ble"
	SourceNone  = "none"
)

// Config holds all application configuration.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Position PositionConfig `mapstructure:"position"`
	Log      LogConfig      `mapstructure:"log"`
	Map      MapConfig      `mapstructure:"map"`
}

type StoreConfig struct {
	Backend      string `mapstructure:"backend"`
	Path         string `mapstructure:"path"`
	ValkeyAddr   string `mapstructure:"valkey_addr"`
	ValkeyPrefix string `mapstructure:"valkey_prefix"`
}

type PositionConfig struct {
	Source  string        `mapstructure:"source"`
	Lat     float64       `mapstructure:"lat"`
	Lng     float64       `mapstructure:"lng"`
	Timeout time.Duration `mapstructure:"timeout"`

	// HasCoords is true when both lat and lng were given
	HasCoords bool `mapstructure:"-"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MapConfig struct {
	Attribution string `mapstructure:"attribution"`
}

// Dir returns ~/.mapty, or .mapty in the working directory without a home.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".mapty")
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"store":            "store.backend",
	"store-path":       "store.path",
	"valkey-addr":      "store.valkey_addr",
	"position":         "position.source",
	"lat":              "position.lat",
	"lng":              "position.lng",
	"position-timeout": "position.timeout",
	"log-file":         "log.file",
	"attribution":      "map.attribution",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mapty", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file (default ~/.mapty/config.yaml)")
	fs.String("store", BackendFile, "storage backend: file, memory or valkey")
	fs.String("store-path", "", "JSON file used by the file backend")
	fs.String("valkey-addr", "", "valkey address used by the valkey backend")
	fs.String("position", SourceAuto, "position source: auto, fixed, ble or none")
	fs.Float64("lat", 0, "latitude for the fixed position source")
	fs.Float64("lng", 0, "longitude for the fixed position source")
	fs.Duration("position-timeout", 0, "how long to wait for a position")
	fs.String("log-file", "", "rotated log file")
	fs.String("attribution", "", "map data credit shown in the map footer")
	return fs
}

// Load parses args (without the program name) and returns the validated configuration.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	dir := Dir()

	// Defaults
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", filepath.Join(dir, "storage.json"))
	v.SetDefault("store.valkey_addr", "localhost:6379")
	v.SetDefault("store.valkey_prefix", "mapty:")
	v.SetDefault("position.source", SourceAuto)
	v.SetDefault("position.timeout", 30*time.Second)
	v.SetDefault("log.file", filepath.Join(dir, "mapty.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("map.attribution", "© OpenStreetMap contributors")

	// Flags override everything else, but only when given
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	// Config file: explicit path must exist, the default one is optional
	configPath, _ := fs.GetString("config")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: MAPTY_STORE_BACKEND → store.backend
	v.SetEnvPrefix("MAPTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Position.HasCoords = v.IsSet("position.lat") && v.IsSet("position.lng")
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Position.Source = strings.ToLower(cfg.Position.Source)
	if cfg.Position.Source == SourceAuto {
		cfg.Position.Source = SourceBLE
		if cfg.Position.HasCoords {
			cfg.Position.Source = SourceFixed
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the file backend")
		}
	case BackendMemory:
	case BackendValkey:
		if c.Store.ValkeyAddr == "" {
			errs = append(errs, "store.valkey_addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be file, memory or valkey, got %q", c.Store.Backend))
	}

	switch c.Position.Source {
	case SourceFixed:
		if !c.Position.HasCoords {
			errs = append(errs, "position.lat and position.lng are required for the fixed source")
		}
		if math.IsNaN(c.Position.Lat) || c.Position.Lat < -90 || c.Position.Lat > 90 {
			errs = append(errs, fmt.Sprintf("position.lat must be -90..90, got %v", c.Position.Lat))
		}
		if math.IsNaN(c.Position.Lng) || c.Position.Lng < -180 || c.Position.Lng > 180 {
			errs = append(errs, fmt.Sprintf("position.lng must be -180..180, got %v", c.Position.Lng))
		}
	case SourceBLE, SourceNone:
	default:
		errs = append(errs, fmt.Sprintf("position.source must be auto, fixed, ble or none, got %q", c.Position.Source))
	}
	if c.Position.Timeout <= 0 {
		errs = append(errs, "position.timeout must be positive")
	}

	if c.Log.File == "" {
		errs = append(errs, "log.file is required")
	}
	if c.Log.MaxSizeMB <= 0 {
		errs = append(errs, "log.max_size_mb must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
