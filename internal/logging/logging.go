// Package logging configures the process-wide slog logger. Output is
// human-readable text on a terminal and JSON otherwise, overridable with
// LOG_FORMAT; LOG_LEVEL selects the minimum level.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetDefault builds the configured logger and installs it as the slog
// default, returning it for direct use.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

// New returns a logger configured from the environment.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level(),
		AddSource:   true,
		ReplaceAttr: trimSource,
	}

	if textOutput() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// textOutput reports whether to emit text rather than JSON: LOG_FORMAT wins,
// otherwise text when stdout is a terminal.
func textOutput() bool {
	switch os.Getenv("LOG_FORMAT") {
	case "text":
		return true
	case "json":
		return false
	}
	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func level() slog.Level {
	var l slog.Level
	s := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if s == "" {
		return slog.LevelInfo
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// trimSource rewrites source file paths relative to the working directory so
// log lines stay short.
func trimSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok {
		return a
	}
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, src.File); err == nil {
			src.File = rel
			return a
		}
	}
	src.File = filepath.Base(src.File)
	return a
}
