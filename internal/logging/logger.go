// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Output formats accepted by Init.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

var logger *slog.Logger

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Init initializes the global structured logger writing to stderr. When
// file is set, records are also appended to it. FormatAuto writes text to
// a terminal and JSON otherwise. The returned closer releases the file and
// is never nil.
func Init(level, format, file string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return closer, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(os.Stderr) {
			format = FormatText
		}
	}

	install(w, level, format)
	return closer, nil
}

// SetOutput installs a text logger writing to w as the global logger.
func SetOutput(w io.Writer, level string) {
	install(w, level, FormatText)
}

func install(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		SetOutput(os.Stderr, "info")
	}
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
