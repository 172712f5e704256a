package app

import (
	apihttp "github.com/yungbote/rolodex-backend/internal/http"
	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics, otelEnabled bool) *apihttp.Server {
	return apihttp.NewServer(log, ":"+cfg.Port, apihttp.RouterConfig{
		Log: log,

		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		UserHandler:    handlers.User,
		ContactHandler: handlers.Contact,

		AuthMiddleware:      middleware.Auth,
		RateLimitMiddleware: middleware.RateLimit,

		Metrics:        metrics,
		AllowedOrigins: cfg.AllowedOrigins,
		OtelEnabled:    otelEnabled,
		ServiceName:    cfg.ServiceName,
	})
}
