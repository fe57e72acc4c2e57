package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID_AssignsAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\r\n")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.NotEqual(t, "bad id\r\n", seen)
}

func TestCORS(t *testing.T) {
	h := CORS("https://mensor.by/")(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://mensor.by")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "https://mensor.by", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://mensor.by")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
	require.Equal(t, "short and stout", rr.Body.String())
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_Memory(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware(okHandler)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:2222").Code)

	rr := hit(h, "10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rr.Body.String())
	require.Equal(t, "60", rr.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1111").Code)
}

func TestMemoryCounter_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newMemoryCounter(time.Hour)
	c.now = func() time.Time { return now }

	n, _ := c.Hit(context.Background(), "ip", time.Minute)
	require.EqualValues(t, 1, n)
	n, _ = c.Hit(context.Background(), "ip", time.Minute)
	require.EqualValues(t, 2, n)

	now = now.Add(2 * time.Minute)
	n, _ = c.Hit(context.Background(), "ip", time.Minute)
	require.EqualValues(t, 1, n)
}

type fakeIncr struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func (f *fakeIncr) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeIncr) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRateLimiter_Redis(t *testing.T) {
	f := &fakeIncr{counts: map[string]int64{}, expires: map[string]time.Duration{}}
	h := NewRedisRateLimiter(f, "ratelimit:chat:", 1, time.Minute).Middleware(okHandler)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:2").Code)
	require.Equal(t, time.Minute, f.expires["ratelimit:chat:10.0.0.1"])
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	f := &fakeIncr{err: errors.New("connection refused")}
	h := NewRedisRateLimiter(f, "rl:", 1, time.Minute).Middleware(okHandler)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
}
