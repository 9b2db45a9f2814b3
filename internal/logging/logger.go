package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

// Options describes logger construction parameters.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string

	// Writer receives console output. Defaults to os.Stdout.
	Writer io.Writer

	// LogFile, when set, receives a JSON copy of every record.
	LogFile string

	// NoColor disables level colours even on a terminal.
	NoColor bool
}

// New constructs the console logger, fanned out to a JSON file when
// opts.LogFile is set. The returned close function releases the file and
// is always safe to call.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	console := newConsoleHandler(w, level, !opts.NoColor && isTerminal(w))

	if opts.LogFile == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	logger := slog.New(slogmulti.Fanout(console, fileHandler))
	return logger, file.Close, nil
}

// NewWithWriters builds a console logger without colour, fanned out to a
// JSON writer when jsonOut is non-nil.
func NewWithWriters(console, jsonOut io.Writer, level slog.Level) *slog.Logger {
	h := newConsoleHandler(console, level, false)
	if jsonOut == nil {
		return slog.New(h)
	}
	return slog.New(slogmulti.Fanout(h, slog.NewJSONHandler(jsonOut, &slog.HandlerOptions{Level: level})))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", s)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
