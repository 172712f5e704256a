package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFixedWindowLimiter(t *testing.T) {
	client := testClient(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	limiter := NewFixedWindow(log, client, 3, time.Minute)
	key := uuid.New().String()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := 3 - (i + 1); res.Remaining != want {
			t.Fatalf("request %d remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if res.Allowed {
		t.Fatal("request over the limit should be rejected")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("retry after = %v, want within (0, 1m]", res.RetryAfter)
	}
}

func TestFixedWindowLimiterResets(t *testing.T) {
	client := testClient(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	limiter := NewFixedWindow(log, client, 1, time.Second)
	key := uuid.New().String()
	ctx := context.Background()

	if res, err := limiter.Allow(ctx, key); err != nil || !res.Allowed {
		t.Fatalf("first request: allowed=%v err=%v", res.Allowed, err)
	}
	if res, err := limiter.Allow(ctx, key); err != nil || res.Allowed {
		t.Fatalf("second request in window: allowed=%v err=%v", res.Allowed, err)
	}

	time.Sleep(1200 * time.Millisecond)

	if res, err := limiter.Allow(ctx, key); err != nil || !res.Allowed {
		t.Fatalf("request after window reset: allowed=%v err=%v", res.Allowed, err)
	}
}
