package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   slog.Level
}

// logBuffer keeps the most recent entries written by a logHandler.
type logBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	limit   int
}

func newLogBuffer(limit int) *logBuffer {
	return &logBuffer{limit: limit}
}

func (b *logBuffer) add(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
	if len(b.entries) > b.limit {
		b.entries = b.entries[len(b.entries)-b.limit:]
	}
}

func (b *logBuffer) snapshot() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LogEntry(nil), b.entries...)
}

// logHandler is a slog.Handler feeding the on-screen log.
type logHandler struct {
	buf   *logBuffer
	level slog.Leveler
	attrs []slog.Attr
}

func newLogHandler(buf *logBuffer, level slog.Leveler) *logHandler {
	return &logHandler{buf: buf, level: level}
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *logHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		// URLs and errors are long; the file name is enough on screen.
		if a.Key == "file" || a.Key == "album" || a.Key == "error" {
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		}
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	h.buf.add(LogEntry{Message: b.String(), Level: r.Level})
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *logHandler) WithGroup(string) slog.Handler {
	return h
}
