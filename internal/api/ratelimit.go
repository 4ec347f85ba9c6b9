package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/forms-api/internal/pkg/httputil"
	"github.com/ignite/forms-api/internal/pkg/logger"
)

// RateLimiter applies a fixed-window per-IP limit to the public form
// endpoints using Redis INCR+EXPIRE. Redis being down never blocks a
// submission: the limiter fails open.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing perMinute requests per
// client IP per endpoint.
func NewRateLimiter(client *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{client: client, limit: perMinute, window: time.Minute}
}

// Middleware enforces the limit. A nil limiter or nil client is a
// pass-through, so the stack works without Redis configured.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil || rl.client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("ratelimit:%s:%s", r.URL.Path, clientIP(r))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}
		if count > int64(rl.limit) {
			logger.Warn("rate limit exceeded", "path", r.URL.Path, "ip", clientIP(r))
			httputil.TooManyRequests(w, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request IP. The RealIP middleware has already
// rewritten RemoteAddr from X-Forwarded-For where applicable.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
