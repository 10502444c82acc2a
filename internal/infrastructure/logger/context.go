package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	tenantIDKey
	userIDKey
)

// Into stores l in ctx
func Into(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// L returns the request-scoped logger from ctx, falling back to the global
// zap logger. The active span's trace and span ids are attached.
func L(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok || l == nil {
		l = zap.L()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

// WithRequestID records the request id and tags the context logger with it
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return Into(ctx, base(ctx).With(zap.String("request_id", id)))
}

// WithTenantID records the tenant id and tags the context logger with it
func WithTenantID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, id)
	return Into(ctx, base(ctx).With(zap.String("tenant_id", id)))
}

// WithUserID records the user id and tags the context logger with it
func WithUserID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id)
	return Into(ctx, base(ctx).With(zap.String("user_id", id)))
}

// RequestID returns the request id stored in ctx
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// TenantID returns the tenant id stored in ctx
func TenantID(ctx context.Context) string { return stringValue(ctx, tenantIDKey) }

// UserID returns the user id stored in ctx
func UserID(ctx context.Context) string { return stringValue(ctx, userIDKey) }

func base(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.L()
}

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
