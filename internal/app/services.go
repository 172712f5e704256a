package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/cache"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/ratelimit"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type Services struct {
	Avatar  services.AvatarService
	Mail    services.MailService
	Token   services.TokenService
	Auth    services.AuthService
	User    services.UserService
	Contact services.ContactService

	UserCache   cache.UserCache
	RateLimiter ratelimit.Limiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	mailService := services.NewMailService(log, clients.Sendgrid, cfg.PublicBaseURL)

	tokenService := services.NewTokenService(
		log,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.EmailTokenTTL,
	)

	userCache := cache.NewUserCache(log, clients.Redis, cfg.UserCacheTTL)

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.UserToken,
		avatarService,
		mailService,
		tokenService,
		userCache,
	)

	userService := services.NewUserService(db, log, repos.User, avatarService, userCache)

	contactService := services.NewContactService(db, log, repos.Contact)

	limiter := ratelimit.NewFixedWindow(log, clients.Redis, cfg.RateLimitRequests, cfg.RateLimitWindow)

	return Services{
		Avatar:  avatarService,
		Mail:    mailService,
		Token:   tokenService,
		Auth:    authService,
		User:    userService,
		Contact: contactService,

		UserCache:   userCache,
		RateLimiter: limiter,
	}, nil
}
