// Package logging builds the structured logger shared by the CLI and the
// HTTP server. Records go to a size-rotated JSON log file, never stdout.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/balkashynov/trakr/internal/config"
)

// Logger wraps a slog.Logger together with the file it writes to.
type Logger struct {
	*slog.Logger
	out io.Closer
}

// New returns a JSON logger writing to the rotated file named in cfg.
func New(cfg config.LogConfig) (*Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	out := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	return &Logger{
		Logger: newJSON(out, level),
		out:    out,
	}, nil
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: newJSON(io.Discard, slog.LevelError)}
}

func newJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}
