package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const timestampLayout = "2006-01-02 15:04:05"

type consoleHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Leveler
	styles map[slog.Level]lipgloss.Style
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, color bool) *consoleHandler {
	h := &consoleHandler{mu: &sync.Mutex{}, writer: w, level: level}
	if color {
		h.styles = levelStyles(lipgloss.NewRenderer(w))
	}
	return h
}

func levelStyles(r *lipgloss.Renderer) map[slog.Level]lipgloss.Style {
	return map[slog.Level]lipgloss.Style{
		slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("8")),
		slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("12")),
		slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(h.label(record.Level))
	buf.WriteByte(' ')
	buf.WriteString(ts.Format(timestampLayout))
	buf.WriteString(" - ")
	buf.WriteString(record.Message)

	// Stored attrs already carry the groups that were open when they were added.
	for _, a := range h.attrs {
		writeAttr(&buf, nil, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.groups, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.groups, attrs)...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// label renders "[LEVEL]". WARN is spelled WARNING.
func (h *consoleHandler) label(level slog.Level) string {
	var name string
	switch {
	case level >= slog.LevelError:
		name, level = "ERROR", slog.LevelError
	case level >= slog.LevelWarn:
		name, level = "WARNING", slog.LevelWarn
	case level >= slog.LevelInfo:
		name, level = "INFO", slog.LevelInfo
	default:
		name, level = "DEBUG", slog.LevelDebug
	}
	text := "[" + name + "]"
	if style, ok := h.styles[level]; ok {
		return style.Render(text)
	}
	return text
}

// qualify pre-applies the open groups to attrs added with WithAttrs, so
// groups opened later do not prefix them.
func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".")
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		if a.Key == "" {
			a.Key = prefix
		} else {
			a.Key = prefix + "." + a.Key
		}
		out[i] = a
	}
	return out
}

func writeAttr(buf *bytes.Buffer, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			writeAttr(buf, sub, ga)
		}
		return
	}

	buf.WriteByte(' ')
	for _, g := range groups {
		buf.WriteString(g)
		buf.WriteByte('.')
	}
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
