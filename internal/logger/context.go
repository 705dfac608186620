package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorKey     ctxKey = "actor"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithActor tags every log line from ctx with the acting user and role.
func WithActor(ctx context.Context, userID int64, role string) context.Context {
	return context.WithValue(ctx, actorKey, []zap.Field{
		zap.Int64("actor_id", userID),
		zap.String("actor_role", role),
	})
}

// FromCtx returns the global logger enriched with request_id and actor fields.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if fields, ok := ctx.Value(actorKey).([]zap.Field); ok {
		l = l.With(fields...)
	}
	return l
}
