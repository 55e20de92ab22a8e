// Package logging sets up the structured application log
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/watchlog/internal/config"
)

// Level converts a configured level name to a slog level. Unknown names map
// to info.
func Level(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger that writes text records to a size-rotated file at
// path. The returned closer flushes and closes the file.
func New(cfg config.LogConfig, path string) (*slog.Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	return NewWithWriter(cfg, w), w
}

// NewWithWriter returns a logger that writes text records to w.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level(cfg.Level),
	})

	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Dump logs a detailed representation of v at debug level.
func Dump(logger *slog.Logger, msg string, v any) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	logger.Debug(msg, slog.String("value", spew.Sdump(v)))
}
