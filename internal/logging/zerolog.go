package logging

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// zlogger renders human-oriented console output, used when the frame loop
// runs in a terminal without the TUI.
type zlogger struct {
	l zerolog.Logger
}

func newZerolog(out io.Writer, level string) Logger {
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	l := zerolog.New(cw).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &zlogger{l: l}
}

func (z *zlogger) With(fields ...Field) Logger {
	ctx := z.l.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zlogger{l: ctx.Logger()}
}

func (z *zlogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.l.Debug(), ctx, msg, fields)
}

func (z *zlogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.l.Info(), ctx, msg, fields)
}

func (z *zlogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.l.Warn(), ctx, msg, fields)
}

func (z *zlogger) Error(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.l.Error(), ctx, msg, fields)
}

func (z *zlogger) emit(ev *zerolog.Event, ctx context.Context, msg string, fields []Field) {
	if ev == nil {
		return
	}
	if id := RequestIDFromContext(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}
	if frame, ok := FrameFromContext(ctx); ok {
		ev = ev.Uint64("frame", frame)
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
