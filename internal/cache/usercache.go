// Package cache keeps hot read-path records in Redis in front of Postgres.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rolodex-backend/internal/domain/user"
	pkgerrors "github.com/yungbote/rolodex-backend/internal/pkg/errors"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// UserCache holds the current-user profile between reads. Misses and
// expirations surface as pkgerrors.ErrNotFound; callers fall back to
// the database.
type UserCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*user.User, error)
	Set(ctx context.Context, u *user.User) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type userCache struct {
	log    *logger.Logger
	client *goredis.Client
	ttl    time.Duration
}

func NewUserCache(log *logger.Logger, client *goredis.Client, ttl time.Duration) UserCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userCache{
		log:    log.With("component", "UserCache"),
		client: client,
		ttl:    ttl,
	}
}

func userKey(userID uuid.UUID) string {
	return fmt.Sprintf("usercache:%s", userID.String())
}

func (c *userCache) Get(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	raw, err := c.client.Get(ctx, userKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("usercache get: %w", err)
	}
	var u user.User
	if err := json.Unmarshal(raw, &u); err != nil {
		// A corrupt entry is treated as a miss so the caller reloads it.
		c.log.Warn("Dropping unreadable user cache entry", "user_id", userID.String(), "error", err)
		_ = c.client.Del(ctx, userKey(userID)).Err()
		return nil, pkgerrors.ErrNotFound
	}
	return &u, nil
}

func (c *userCache) Set(ctx context.Context, u *user.User) error {
	if u == nil || u.ID == uuid.Nil {
		return fmt.Errorf("usercache set: missing user id")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("usercache marshal: %w", err)
	}
	if err := c.client.Set(ctx, userKey(u.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("usercache set: %w", err)
	}
	return nil
}

func (c *userCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("usercache invalidate: %w", err)
	}
	return nil
}
