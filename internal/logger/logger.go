// Package logger provides structured logging for hymo, built on log/slog.
//
// Output defaults to colored text on a terminal and plain text elsewhere;
// JSON is available for log shipping. The logger is package-global because
// mount execution is a single linear flow, not a request-serving system.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	mu      sync.RWMutex
	slogger = defaultLogger()
	closer  io.Closer
)

func defaultLogger() *slog.Logger {
	useColor := isTerminal(os.Stdout.Fd())
	return slog.New(newColorTextHandler(os.Stdout, slog.LevelInfo, useColor))
}

// Init reconfigures the logger. It may be called once configuration is
// loaded; before that, the default (INFO, text, stdout) applies.
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var out io.Writer
	var newCloser io.Closer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log output %s: %w", cfg.Output, err)
		}
		out = f
		newCloser = f
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		useColor := false
		if f, ok := out.(*os.File); ok {
			useColor = isTerminal(f.Fd())
		}
		handler = newColorTextHandler(out, level, useColor)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
	}
	closer = newCloser
	slogger = slog.New(handler)
	return nil
}

// parseLevel maps a config string to a slog level.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q (valid: DEBUG, INFO, WARN, ERROR)", s)
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with key-value pairs.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs at info level with key-value pairs.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs at warn level with key-value pairs.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs at error level with key-value pairs.
func Error(msg string, args ...any) { get().Error(msg, args...) }
