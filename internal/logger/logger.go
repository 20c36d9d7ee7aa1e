// Package logger configures the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Log = zerolog.New(io.Discard)

// Init logs to stdout. level is a zerolog level name; format is "json" or
// "console". Empty or unknown values fall back to info and console.
func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

func InitWithWriter(w io.Writer, logLevel, format string) {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if format == "json" {
		l = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(lvl)
	}

	Log = l
	zlog.Logger = l
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey{}).(string); ok {
		return s
	}
	return ""
}

// Ctx returns a logger with Request-ID context if available
func Ctx(ctx context.Context) *zerolog.Logger {
	if reqID := RequestID(ctx); reqID != "" {
		l := Log.With().Str("request_id", reqID).Logger()
		return &l
	}
	return &Log
}
