package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rolodex-backend/internal/platform/gcs"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/platform/redisclient"
	"github.com/yungbote/rolodex-backend/internal/platform/sendgrid"
)

type Clients struct {
	Redis    *goredis.Client
	Bucket   gcs.BucketService
	Sendgrid sendgrid.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	redisClient, err := redisclient.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis client: %w", err)
	}

	bucket, err := gcs.NewBucketService(log)
	if err != nil {
		_ = redisClient.Close()
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	sendgridClient, err := sendgrid.NewFromEnv(log)
	if err != nil {
		_ = redisClient.Close()
		return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
	}

	return Clients{
		Redis:    redisClient,
		Bucket:   bucket,
		Sendgrid: sendgridClient,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
