package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitebuddy-be/internal/auth"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/metrics"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, observed := observer.New(zapcore.DebugLevel)

	original := logger.L()
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(original) })

	return observed
}

func signedToken(t *testing.T, tokens *user.TokenManager, u *user.User) string {
	t.Helper()
	tok, err := tokens.Generate(u)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	tokens := user.NewTokenManager("test-secret", time.Hour)
	staff := &user.User{ID: 7, Email: "staff@example.com", Role: user.RoleStaff}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, "staff", utils.GetUserRoleFromContext(r.Context()))
		assert.Equal(t, "staff@example.com", utils.GetUserEmailFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Missing Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid Bearer Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, tokens, staff))
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Valid Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: signedToken(t, tokens, staff)})
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		expired := user.NewTokenManager("test-secret", -time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, expired, staff))
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := user.NewTokenManager("other-secret", time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, other, staff))
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()

		AuthMiddleware(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(user.RoleStaff, user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role string
		want int
	}{
		{"staff", http.StatusNoContent},
		{"admin", http.StatusNoContent},
		{"customer", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(utils.SetUserContext(req.Context(), 1, "a@example.com", tt.role))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	hit := func(h http.Handler, path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("strict tier for admin login", func(t *testing.T) {
		rl := NewRateLimiter(clockwork.NewFakeClock(), []string{"/admin-login"}, []string{"/verify-otp"})
		h := rl.Middleware(ok)

		for i := 0; i < burstStrict; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "/admin-login", "10.0.0.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "/admin-login", "10.0.0.1"))

		// other callers and the general tier keep their own buckets
		assert.Equal(t, http.StatusOK, hit(h, "/admin-login", "10.0.0.2"))
		assert.Equal(t, http.StatusOK, hit(h, "/api/orders", "10.0.0.1"))
	})

	t.Run("strict tier by suffix", func(t *testing.T) {
		rl := NewRateLimiter(clockwork.NewFakeClock(), nil, []string{"/verify-otp"})
		h := rl.Middleware(ok)

		for i := 0; i < burstStrict; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "/api/staff/orders/9/verify-otp", "10.0.0.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "/api/staff/orders/12/verify-otp", "10.0.0.1"))
	})

	t.Run("general tier refills with time", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		rl := NewRateLimiter(clock, nil, nil)
		h := rl.Middleware(ok)

		for i := 0; i < burstGeneral; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "/api/orders", "10.0.0.1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "/api/orders", "10.0.0.1"))

		clock.Advance(time.Second)
		assert.Equal(t, http.StatusOK, hit(h, "/api/orders", "10.0.0.1"))
	})

	t.Run("identity uses device only outside the strict tier", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		assert.Equal(t, "ip:10.0.0.3", identity(req, false))

		req.Header.Set("X-Device-ID", "kiosk-1")
		assert.Equal(t, "device:kiosk-1", identity(req, false))
		assert.Equal(t, "ip:10.0.0.3", identity(req, true))
	})

	t.Run("rotating device id does not reset strict bucket", func(t *testing.T) {
		rl := NewRateLimiter(clockwork.NewFakeClock(), []string{"/admin-login"}, []string{"/verify-otp"})
		h := rl.Middleware(ok)

		limited := 0
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodPost, "/admin-login", nil)
			req.RemoteAddr = "10.0.0.9:5000"
			req.Header.Set("X-Device-ID", fmt.Sprintf("device-%d", i))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.Equal(t, 50-burstStrict, limited)
	})

	t.Run("device id separates general buckets", func(t *testing.T) {
		rl := NewRateLimiter(clockwork.NewFakeClock(), nil, nil)
		h := rl.Middleware(ok)

		send := func(device string) int {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			req.RemoteAddr = "10.0.0.9:5000"
			req.Header.Set("X-Device-ID", device)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w.Code
		}
		for i := 0; i < burstGeneral; i++ {
			assert.Equal(t, http.StatusOK, send("kiosk-1"))
		}
		assert.Equal(t, http.StatusTooManyRequests, send("kiosk-1"))
		assert.Equal(t, http.StatusOK, send("kiosk-2"))
	})

	t.Run("cleanup drops idle visitors", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		rl := NewRateLimiter(clock, nil, nil)
		h := rl.Middleware(ok)

		hit(h, "/api/orders", "10.0.0.1")
		clock.Advance(2 * time.Minute)
		hit(h, "/api/orders", "10.0.0.2")
		clock.Advance(2 * time.Minute)

		rl.cleanup()

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Len(t, rl.visitors, 1)
		_, kept := rl.visitors["ip:10.0.0.2:general"]
		assert.True(t, kept)
	})

	t.Run("run stops with context", func(t *testing.T) {
		rl := NewRateLimiter(clockwork.NewFakeClock(), nil, nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			rl.Run(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	observed := observe(t)

	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	tokens := user.NewTokenManager("test-secret", time.Hour)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(LoggingMiddleware(m))
	r.With(AuthMiddleware(tokens)).Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, tokens, &user.User{ID: 3, Role: user.RoleCustomer}))
	req.Header.Set(logger.RequestIDHeader, "req-9")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	logs := observed.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/orders/42", fields["path"])
	assert.Equal(t, "/orders/{id}", fields["route"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, int64(3), fields["user_id"])
	assert.Equal(t, "req-9", fields["request_id"])

	expected := `
# HELP bitebuddy_http_requests_total HTTP requests by method, route and status code
# TYPE bitebuddy_http_requests_total counter
bitebuddy_http_requests_total{method="GET",route="/orders/{id}",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "bitebuddy_http_requests_total"))
}

func TestLoggingMiddleware_NoMetrics(t *testing.T) {
	observe(t)

	handler := LoggingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
}
