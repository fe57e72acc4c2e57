package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

// counter increments the hit count of key within a fixed window starting at
// the first hit.
type counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	counter counter
	prefix  string
	limit   int
	window  time.Duration
}

// NewRateLimiter keeps counts in process memory.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: newMemoryCounter(window),
		limit:   limit,
		window:  window,
	}
}

// NewRedisRateLimiter shares counts between instances through Redis keys
// named prefix + client IP.
func NewRedisRateLimiter(client redisIncrementer, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: &redisCounter{client: client},
		prefix:  prefix,
		limit:   limit,
		window:  window,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.counter.Hit(r.Context(), rl.prefix+clientIP(r), rl.window)
		if err != nil {
			// Fail open.
			log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, models.MsgTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type visitor struct {
	count    int64
	lastSeen time.Time
	started  time.Time
}

type memoryCounter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func newMemoryCounter(window time.Duration) *memoryCounter {
	c := &memoryCounter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			c.mu.Lock()
			for ip, v := range c.visitors {
				if c.now().Sub(v.lastSeen) > window {
					delete(c.visitors, ip)
				}
			}
			c.mu.Unlock()
		}
	}()

	return c
}

func (c *memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	v, exists := c.visitors[key]
	if !exists || now.Sub(v.started) > window {
		c.visitors[key] = &visitor{count: 1, lastSeen: now, started: now}
		return 1, nil
	}

	v.count++
	v.lastSeen = now
	return v.count, nil
}

type redisIncrementer interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type redisCounter struct {
	client redisIncrementer
}

func (c *redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
