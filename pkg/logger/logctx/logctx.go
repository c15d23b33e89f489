// Package logctx logs through zap with key/values carried on the context,
// so request scoped fields such as request_id follow every call.
package logctx

import (
	"context"

	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fieldsKey struct{}

// WithFields returns a context whose log lines carry the given key/values.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	if len(keysAndValues) == 0 {
		return ctx
	}
	prev := Fields(ctx)
	fields := make([]any, 0, len(prev)+len(keysAndValues))
	fields = append(fields, prev...)
	fields = append(fields, keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

func From(ctx context.Context) *zap.SugaredLogger {
	return logger.MustNamed("app").With(Fields(ctx)...)
}

func Debugw(ctx context.Context, msg string, keysAndValues ...any) {
	Logw(ctx, zapcore.DebugLevel, msg, keysAndValues...)
}

func Infow(ctx context.Context, msg string, keysAndValues ...any) {
	Logw(ctx, zapcore.InfoLevel, msg, keysAndValues...)
}

func Warnw(ctx context.Context, msg string, keysAndValues ...any) {
	Logw(ctx, zapcore.WarnLevel, msg, keysAndValues...)
}

func Errorw(ctx context.Context, msg string, keysAndValues ...any) {
	Logw(ctx, zapcore.ErrorLevel, msg, keysAndValues...)
}

func Infof(ctx context.Context, template string, args ...any) {
	From(ctx).Infof(template, args...)
}

func Warnf(ctx context.Context, template string, args ...any) {
	From(ctx).Warnf(template, args...)
}

func Logw(ctx context.Context, lvl zapcore.Level, msg string, keysAndValues ...any) {
	l := From(ctx).WithOptions(zap.AddCallerSkip(1))
	switch lvl {
	case zapcore.DebugLevel:
		l.Debugw(msg, keysAndValues...)
	case zapcore.InfoLevel:
		l.Infow(msg, keysAndValues...)
	case zapcore.WarnLevel:
		l.Warnw(msg, keysAndValues...)
	default:
		l.Errorw(msg, keysAndValues...)
	}
}
