package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(t *testing.T, perMinute int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRateLimiter(client, perMinute)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func hit(handler http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = ip + ":54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	handler, _ := newLimitedHandler(t, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	handler, _ := newLimitedHandler(t, 2)

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1"))

	// Other clients are unaffected.
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2"))
}

func TestRateLimiterWindowResets(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1"))

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRateLimiter(client, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	mr.Close()
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
}

func TestNilLimiterPassesThrough(t *testing.T) {
	var limiter *RateLimiter
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1"))
}
