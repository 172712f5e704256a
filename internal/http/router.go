package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/rolodex-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rolodex-backend/internal/http/middleware"
	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	UserHandler    *httpH.UserHandler
	ContactHandler *httpH.ContactHandler
	HealthHandler  *httpH.HealthHandler

	AuthMiddleware      *httpMW.AuthMiddleware
	RateLimitMiddleware *httpMW.RateLimitMiddleware

	Metrics        *observability.Metrics
	AllowedOrigins []string
	OtelEnabled    bool
	ServiceName    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.OtelEnabled {
		// otelgin must run first so the trace middleware can pick up
		// its span context.
		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = "rolodex"
		}
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		{
			auth.POST("/register", cfg.AuthHandler.Register)
			auth.POST("/login", cfg.AuthHandler.Login)
			auth.POST("/refresh-token", cfg.AuthHandler.Refresh)
			auth.GET("/verify/:token", cfg.AuthHandler.VerifyEmail)
			auth.POST("/request-email", cfg.AuthHandler.ResendVerification)
			auth.POST("/request-password-reset", cfg.AuthHandler.RequestPasswordReset)
			auth.GET("/reset-password", cfg.AuthHandler.ResetPassword)
			if cfg.AuthMiddleware != nil {
				auth.POST("/logout", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Logout)
			}
		}
	}

	// User (Me)
	if cfg.UserHandler != nil && cfg.AuthMiddleware != nil {
		users := api.Group("/users", cfg.AuthMiddleware.RequireAuth())
		{
			if cfg.RateLimitMiddleware != nil {
				users.GET("/me", cfg.RateLimitMiddleware.PerUser(), cfg.UserHandler.GetMe)
			} else {
				users.GET("/me", cfg.UserHandler.GetMe)
			}
			users.PATCH("/avatar", cfg.UserHandler.UploadAvatar)
		}
	}

	// Contacts
	if cfg.ContactHandler != nil && cfg.AuthMiddleware != nil {
		contacts := api.Group("/contacts", cfg.AuthMiddleware.RequireAuth())
		{
			contacts.POST("", cfg.ContactHandler.Create)
			contacts.GET("", cfg.ContactHandler.List)
			contacts.GET("/birthdays", cfg.ContactHandler.UpcomingBirthdays)
			contacts.GET("/:id", cfg.ContactHandler.Get)
			contacts.PUT("/:id", cfg.ContactHandler.Update)
			contacts.DELETE("/:id", cfg.ContactHandler.Delete)
		}
	}

	return r
}
