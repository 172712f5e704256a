// Package ratelimit implements a fixed-window counter on Redis, so the
// budget holds across instances and concurrent requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Limit() int
	Window() time.Duration
}

type fixedWindowLimiter struct {
	log    *logger.Logger
	client *goredis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewFixedWindow(log *logger.Logger, client *goredis.Client, limit int, window time.Duration) Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &fixedWindowLimiter{
		log:    log.With("component", "RateLimiter"),
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit",
	}
}

func (l *fixedWindowLimiter) Limit() int            { return l.limit }
func (l *fixedWindowLimiter) Window() time.Duration { return l.window }

// Allow counts the request against the caller's current window. The
// first increment creates the key and starts the window clock.
func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	n, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	if n <= int64(l.limit) {
		return Result{Allowed: true, Remaining: l.limit - int(n)}, nil
	}

	retryAfter, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || retryAfter < 0 {
		retryAfter = l.window
	}
	return Result{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
}
