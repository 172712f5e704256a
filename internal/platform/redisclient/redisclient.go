package redisclient

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rolodex-backend/internal/platform/envutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// New dials Redis and verifies the connection before returning it.
// The same client backs the rate limiter and the user cache.
func New(log *logger.Logger) (*goredis.Client, error) {
	addr := envutil.String("REDIS_ADDR", "localhost:6379")

	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Info("Redis connected", "addr", addr)
	return client, nil
}
