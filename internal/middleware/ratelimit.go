package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is the subset of *redis.Client the limiter needs.
type CounterStore interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// RateLimiter is a fixed-window counter kept in Redis, so limits hold across
// restarts and across every replica sharing the same Redis.
type RateLimiter struct {
	redis  CounterStore
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(client CounterStore, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow counts one hit for key in the current window and reports whether
// the key is still within its limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("ratelimit:%s:%s", rl.prefix, key)

	// INCR and EXPIRE NX run in one MULTI/EXEC so a key never outlives its
	// window without a TTL.
	var incr *redis.IntCmd
	_, err := rl.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, rl.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	count := incr.Val()

	return count <= int64(rl.limit), nil
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// Middleware limits requests per client address. A Redis outage lets
// requests through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.Allow(r.Context(), r.RemoteAddr)
		if err != nil {
			log.Printf("Rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
