package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"bitebuddy-be/internal/utils"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Admin login / OTP verification
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	idleTTL = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	clock    clockwork.Clock

	strictPaths    map[string]bool
	strictSuffixes []string
}

// NewRateLimiter puts the exact strictPaths and any path ending in one of
// strictSuffixes into the strict tier.
func NewRateLimiter(clock clockwork.Clock, strictPaths []string, strictSuffixes []string) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rl := &RateLimiter{
		visitors:       make(map[string]*visitor),
		clock:          clock,
		strictPaths:    make(map[string]bool, len(strictPaths)),
		strictSuffixes: strictSuffixes,
	}
	for _, p := range strictPaths {
		rl.strictPaths[p] = true
	}
	return rl
}

// Run removes idle visitors every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := rl.clock.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

// Middleware answers 429 once the caller's bucket for the request's tier is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := rl.resolveRateTier(r)

		key := fmt.Sprintf("%s:%s", identity(r, tier == "strict"), tier)

		limiter := rl.getVisitor(key, limit, burst)
		if !limiter.AllowN(rl.clock.Now(), 1) {
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if rl.strictPaths[r.URL.Path] {
		return limitStrict, burstStrict, "strict"
	}
	for _, suffix := range rl.strictSuffixes {
		if strings.HasSuffix(r.URL.Path, suffix) {
			return limitStrict, burstStrict, "strict"
		}
	}
	return limitGeneral, burstGeneral, "general"
}

// identity keys the general tier on X-Device-ID when present. The strict
// tier always keys on the remote IP since the header is client controlled.
func identity(r *http.Request, strict bool) string {
	if !strict {
		if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
			return "device:" + deviceID
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
