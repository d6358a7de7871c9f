package logging

import (
	"context"
	"io"
	"log/slog"
)

// SlogLogger routes Logger calls into a *slog.Logger.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// newSlog builds the text or JSON backend. Source locations are attached
// only at debug level.
func newSlog(format Format, w io.Writer, level slog.Level) *SlogLogger {
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h))
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) { s.log(ctx, slog.LevelDebug, msg, args) }
func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any)  { s.log(ctx, slog.LevelInfo, msg, args) }
func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any)  { s.log(ctx, slog.LevelWarn, msg, args) }
func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) { s.log(ctx, slog.LevelError, msg, args) }

func (s *SlogLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return s
	}
	return &SlogLogger{l: s.l.With(args...)}
}
