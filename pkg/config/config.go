// Package config loads the goexpr CLI configuration.
//
// Settings come from defaults, then an optional YAML file, then GOEXPR_*
// environment variables:
//
//	GOEXPR_LOG_LEVEL   debug | info | warn | error
//	GOEXPR_LOG_FILE    rotate logs into this file as well
//	GOEXPR_SERIES_DB   SQLite sample store
//	GOEXPR_CACHE_SIZE  simplifier cache entries (0 disables it)
//	GOEXPR_MAX_DEPTH   evaluation recursion limit
//	GOEXPR_METRIC      describe quantities in metric units
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goexpr/pkg/evaluator"
)

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, receives a copy of the log and is rotated.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Config is the CLI configuration.
type Config struct {
	Log       Log    `yaml:"log"`
	SeriesDB  string `yaml:"series_db"`
	Models    string `yaml:"models"`
	CacheSize int    `yaml:"cache_size"`
	MaxDepth  int    `yaml:"max_depth"`
	Metric    bool   `yaml:"metric"`
	// Location is the IANA zone used for local time conversion.
	Location string `yaml:"location"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		CacheSize: 256,
		MaxDepth:  10000,
		Metric:    true,
		Location:  "Local",
	}
}

// Load reads the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if env.Has("GOEXPR_LOG_LEVEL") {
		c.Log.Level = strings.ToLower(env.Str("GOEXPR_LOG_LEVEL"))
	}
	if env.Has("GOEXPR_LOG_FILE") {
		c.Log.File = env.Str("GOEXPR_LOG_FILE")
	}
	if env.Has("GOEXPR_SERIES_DB") {
		c.SeriesDB = env.Str("GOEXPR_SERIES_DB")
	}
	c.CacheSize = env.Int("GOEXPR_CACHE_SIZE", c.CacheSize)
	c.MaxDepth = env.Int("GOEXPR_MAX_DEPTH", c.MaxDepth)
	if env.Has("GOEXPR_METRIC") {
		c.Metric = env.Bool("GOEXPR_METRIC")
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := levels[c.Log.Level]; !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if c.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		errs = append(errs, fmt.Errorf("location: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EvalOptions returns the evaluator settings the configuration implies.
func (c *Config) EvalOptions() []evaluator.EvalOption {
	opts := []evaluator.EvalOption{evaluator.WithMaxDepth(c.MaxDepth)}
	if loc, err := time.LoadLocation(c.Location); err == nil {
		opts = append(opts, evaluator.WithLocation(loc))
	}
	return opts
}
