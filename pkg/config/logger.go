package config

import (
	"io"
	"log/slog"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds the logger described by the configuration, writing to w
// and, when a log file is configured, to the rotated file as well. The
// returned closer releases the file.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{
		Level: levels[c.Log.Level],
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, _ := a.Value.Any().(*slog.Source); src != nil {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}

	var closer io.Closer = nopCloser{}
	if c.Log.File != "" {
		file := &lumberjack.Logger{
			Filename:   c.Log.File,
			MaxSize:    c.Log.MaxSizeMB, // megabytes
			MaxAge:     c.Log.MaxAgeDays,
			MaxBackups: c.Log.MaxBackups,
			Compress:   c.Log.Compress,
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
