// Package logging builds the zap logger used across gonce and carries
// request-scoped loggers through a context.
package logging

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var allLevels = []zapcore.Level{
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
	zapcore.ErrorLevel,
}

type contextKeyLogger struct{}

// New returns a production (json) or development (console) logger at level.
// An empty level means info.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var cfg zap.Config
	switch format {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format '%s', must be one of [%s, %s]", format, FormatJSON, FormatConsole)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// ParseLevel parses a level name, listing the allowed names on failure.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl < zapcore.DebugLevel || lvl > zapcore.ErrorLevel {
		names := make([]string, 0, len(allLevels))
		for _, l := range allLevels {
			names = append(names, l.String())
		}
		return zapcore.InfoLevel, fmt.Errorf("invalid log level '%s', must be one of [%s]", level, strings.Join(names, ", "))
	}
	return lvl, nil
}

func FromRequest(r *http.Request) *zap.Logger {
	return FromContext(r.Context())
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(contextKeyLogger{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

func IntoRequest(r *http.Request, logger *zap.Logger) *http.Request {
	return r.WithContext(IntoContext(r.Context(), logger))
}

func IntoContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}
