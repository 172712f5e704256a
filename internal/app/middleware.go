package app

import (
	httpMW "github.com/yungbote/rolodex-backend/internal/http/middleware"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimitMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimitMiddleware(log, services.RateLimiter),
	}
}
