package middleware

import (
	"context"
	"net/http"

	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// responseRecorder captures the status code written by the handler.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

type actorSlotKey struct{}

// actorSlot lets AuthMiddleware, which runs deeper in the chain, report the
// caller back to the request log line.
type actorSlot struct {
	userID int64
}

func recordActor(ctx context.Context, userID int64) {
	if slot, ok := ctx.Value(actorSlotKey{}).(*actorSlot); ok {
		slot.userID = userID
	}
}

// LoggingMiddleware logs each request and, when m is non-nil, records it
// under the matched chi route pattern.
func LoggingMiddleware(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := metrics.StartTimer()

			slot := &actorSlot{}
			r = r.WithContext(context.WithValue(r.Context(), actorSlotKey{}, slot))

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := timer.Duration()
			route := routePattern(r)
			if m != nil {
				m.Observe(r.Method, route, rec.statusCode, duration)
			}

			logger.FromCtx(r.Context()).Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rec.statusCode),
				zap.Duration("duration", duration),
				zap.String("remote_ip", r.RemoteAddr),
				zap.Int64("user_id", slot.userID),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
