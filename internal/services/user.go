package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/cache"
	"github.com/yungbote/rolodex-backend/internal/data/dberr"
	userrepo "github.com/yungbote/rolodex-backend/internal/data/repos/user"
	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/rolodex-backend/internal/pkg/errors"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// UserService serves the authenticated user's own profile. Reads go
// through the Redis cache; every mutation invalidates the entry.
type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      userrepo.UserRepo
	avatarService AvatarService
	userCache     cache.UserCache
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo userrepo.UserRepo, avatarService AvatarService, userCache cache.UserCache) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		avatarService: avatarService,
		userCache:     userCache,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("no user in request context"))
	}

	if us.userCache != nil {
		u, err := us.userCache.Get(ctx, rd.UserID)
		if err == nil {
			observability.Current().IncUserCache(true)
			return u, nil
		}
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			us.log.Warn("User cache read failed (ignored)", "user_id", rd.UserID.String(), "error", err)
		}
		observability.Current().IncUserCache(false)
	}

	u, err := us.userRepo.GetByID(dbctx.New(ctx), rd.UserID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apierr.NotFound(errors.New("user not found"))
		}
		return nil, apierr.Internal(fmt.Errorf("fetch user: %w", err))
	}

	if us.userCache != nil {
		if err := us.userCache.Set(ctx, u); err != nil {
			us.log.Warn("User cache write failed (ignored)", "user_id", rd.UserID.String(), "error", err)
		}
	}
	return u, nil
}

func (us *userService) UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("no user in request context"))
	}
	if len(raw) == 0 {
		return nil, apierr.Invalid(errors.New("empty upload"))
	}

	var out *types.User
	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		u, err := us.userRepo.GetByID(inner, rd.UserID)
		if err != nil {
			if dberr.IsNotFound(err) {
				return apierr.NotFound(errors.New("user not found"))
			}
			return fmt.Errorf("fetch user: %w", err)
		}

		if err := us.avatarService.CreateAndUploadUserAvatarFromImage(inner, u, raw); err != nil {
			if errors.Is(err, pkgerrors.ErrInvalidArgument) {
				return apierr.Invalid(errors.New("invalid image upload"))
			}
			us.log.Warn("Avatar upload failed", "user_id", rd.UserID.String(), "error", err)
			return apierr.Upstream(apierr.CodeUploadFailed, errors.New("avatar upload failed"))
		}

		if err := us.userRepo.UpdateAvatarFields(inner, rd.UserID, u.AvatarBucketKey, u.AvatarURL, u.AvatarColor); err != nil {
			return fmt.Errorf("persist avatar fields: %w", err)
		}

		out = u
		return nil
	}); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal(err)
	}

	if us.userCache != nil {
		if err := us.userCache.Invalidate(ctx, rd.UserID); err != nil {
			us.log.Warn("User cache invalidate failed (ignored)", "user_id", rd.UserID.String(), "error", err)
		}
	}
	return out, nil
}
