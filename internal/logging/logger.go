// Package logging defines the structured-logging interface used across the
// console. Backends wrap log/slog or zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "collection loaded", "resource", "chatbot", "count", 6)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is used for recoverable failures: rollbacks, best-effort refreshes.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Format selects a logging backend.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatZap  Format = "zap"
)

// New builds a Logger for the given format writing to w. The zap backend
// always writes JSON to stderr through its production config.
func New(format Format, w io.Writer, debug bool) (Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	switch Format(strings.ToLower(string(format))) {
	case "", FormatText:
		return newSlog(FormatText, w, level), nil
	case FormatJSON:
		return newSlog(FormatJSON, w, level), nil
	case FormatZap:
		return NewZapLogger(debug)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
