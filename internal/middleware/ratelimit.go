package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/shipments-backend/pkg/clientip"
)

const (
	// RateLimitWindow is the fixed window every counter lives for.
	RateLimitWindow = time.Minute
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
)

// RateLimiter counts requests per client IP in Redis over a fixed one-minute
// window. Requests are let through when Redis is unavailable.
type RateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	skip   map[string]bool
}

// NewRateLimiter allows perMinute requests per IP. Paths in skip are never
// counted.
func NewRateLimiter(rdb redis.Cmdable, perMinute int, skip ...string) *RateLimiter {
	l := &RateLimiter{rdb: rdb, limit: perMinute, window: RateLimitWindow, skip: make(map[string]bool)}
	for _, p := range skip {
		l.skip[p] = true
	}
	return l
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.skip[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := RateLimitKeyPrefix + clientip.LimitKey(r)

		count, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RATELIMIT] redis unavailable, allowing request: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}

		ttl, err := l.rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}

		remaining := l.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > l.limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			tooManyRequests(w, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
