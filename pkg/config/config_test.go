package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/config"
	"github.com/sandrolain/goexpr/pkg/evaluator"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goexpr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
series_db: /var/lib/goexpr/series.db
cache_size: 64
max_depth: 500
metric: false
location: Europe/Rome
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB, "unset keys keep their defaults")
	assert.Equal(t, "/var/lib/goexpr/series.db", cfg.SeriesDB)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 500, cfg.MaxDepth)
	assert.False(t, cfg.Metric)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := config.Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOEXPR_LOG_LEVEL", "WARN")
	t.Setenv("GOEXPR_SERIES_DB", "env.db")
	t.Setenv("GOEXPR_CACHE_SIZE", "0")
	t.Setenv("GOEXPR_MAX_DEPTH", "42")
	t.Setenv("GOEXPR_METRIC", "false")

	cfg, err := config.Load(writeFile(t, "series_db: file.db\nmax_depth: 7\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env.db", cfg.SeriesDB)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, 42, cfg.MaxDepth)
	assert.False(t, cfg.Metric)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(writeFile(t, "cache_sise: 3\n"))
	assert.ErrorContains(t, err, "cache_sise")

	_, err = config.Load(writeFile(t, "log: {level: loud, format: xml}\nmax_depth: 0\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown log level "loud"`)
	assert.ErrorContains(t, err, `unknown log format "xml"`)
	assert.ErrorContains(t, err, "max_depth must be positive")

	_, err = config.Load(writeFile(t, "location: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "location")
}

func TestNewLoggerJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger, closer := cfg.NewLogger(&buf)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "rule", "heating")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "heating", rec["rule"])
}

func TestNewLoggerFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "goexpr.log")

	var buf bytes.Buffer
	logger, closer := cfg.NewLogger(&buf)
	logger.Info("evaluated", "value", 14)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=evaluated value=14")
	assert.Equal(t, buf.String(), string(data))
}

func TestEvalOptions(t *testing.T) {
	cfg := config.Default()
	cfg.MaxDepth = 3
	cfg.Location = "UTC"

	opts := evaluator.New(cfg.EvalOptions()...).Options()
	assert.Equal(t, 3, opts.MaxDepth)
	assert.Equal(t, "UTC", opts.Location.String())
}
