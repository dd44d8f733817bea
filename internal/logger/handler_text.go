package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// colorTextHandler is a slog.Handler producing single-line text records,
// with the level colored when writing to a terminal.
type colorTextHandler struct {
	w        io.Writer
	mu       *sync.Mutex
	level    slog.Level
	attrs    []slog.Attr
	useColor bool
}

func newColorTextHandler(w io.Writer, level slog.Level, useColor bool) *colorTextHandler {
	return &colorTextHandler{
		w:        w,
		mu:       &sync.Mutex{},
		level:    level,
		useColor: useColor,
	}
}

func (h *colorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorTextHandler) Handle(_ context.Context, r slog.Record) error {
	// Build the line outside the lock.
	var buf []byte
	buf = fmt.Appendf(buf, "[%s] [%s] %s",
		r.Time.Format("2006-01-02 15:04:05"),
		h.formatLevel(r.Level),
		r.Message)

	for _, attr := range h.attrs {
		buf = appendAttr(buf, attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *colorTextHandler) WithGroup(string) slog.Handler {
	// Groups are not used in this codebase.
	return h
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	return fmt.Appendf(buf, " %s=%v", a.Key, a.Value.Any())
}

func (h *colorTextHandler) formatLevel(level slog.Level) string {
	var name, color string
	switch {
	case level < slog.LevelInfo:
		name, color = "DEBUG", colorGray
	case level < slog.LevelWarn:
		name, color = "INFO", colorGreen
	case level < slog.LevelError:
		name, color = "WARN", colorYellow
	default:
		name, color = "ERROR", colorRed
	}
	if h.useColor {
		return color + name + colorReset
	}
	return name
}
