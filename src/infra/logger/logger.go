// Package logger builds the application's structured logger on log/slog.
//
// Three output formats are supported:
//   - json: one object per line, for log shippers (default)
//   - text: slog's logfmt-style key=value output
//   - plain: "time | LEVEL | component | message" lines for local development
//
// Every logger carries a "service" attribute. Component loggers add
// "component" so credential, pool and cache messages can be told apart.
//
// Usage:
//
//	log := logger.New(cfg.Log)
//	log.Info("server starting", "port", 8000)
//	pgLog := logger.WithComponent(log, "postgres")
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"budgettool/src/infra/config"
)

// Service is attached to every record emitted by New.
const Service = "budget-tool-api"

// New creates a new slog.Logger based on the provided configuration.
// It supports json, text and plain output formats, and configurable log levels.
func New(cfg config.LogConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a new logger that writes to the specified writer.
// This is useful for testing or writing logs to files.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info only in debug mode
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "plain":
		// The mutex is shared by every handler derived via WithAttrs so lines
		// from different component loggers never interleave.
		handler = &plainHandler{level: level, w: w, mu: &sync.Mutex{}}
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	// Tag every record with the service name for multi-service log stores.
	return slog.New(handler).With("service", Service)
}

// parseLevel converts a string log level to slog.Level.
// Defaults to Info if the level is not recognized.
func parseLevel(level string) slog.Level {
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

// WithRequestID returns a new logger with the request ID added to all log entries.
// Use this in HTTP handlers after extracting the request ID from context.
func WithRequestID(log *slog.Logger, requestID string) *slog.Logger {
	return log.With("request_id", requestID)
}

// WithComponent returns a new logger tagged with the component that emits it,
// e.g. "credentials", "postgres", "cache".
func WithComponent(log *slog.Logger, component string) *slog.Logger {
	return log.With("component", component)
}

// plainHandler writes "time | LEVEL | component | message key=value ..." lines
// for local development.
type plainHandler struct {
	level     slog.Level
	w         io.Writer
	mu        *sync.Mutex
	attrs     []slog.Attr
	component string
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %-5s | %s | %s", r.Time.Format(time.RFC3339), r.Level.String(), h.component, r.Message)

	write := func(a slog.Attr) bool {
		// service is constant and component already has its own column
		if a.Key == "service" || a.Key == "component" {
			return true
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	// Build the line first, then hold the lock only for the write.
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

// WithAttrs returns a copy carrying attrs. The component attribute is lifted
// into its own column.
func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	for _, a := range attrs {
		if a.Key == "component" {
			next.component = a.Value.String()
		}
	}
	return &next
}

// WithGroup is a no-op: plain output is flat, group names are dropped.
func (h *plainHandler) WithGroup(name string) slog.Handler {
	_ = name
	return h
}
