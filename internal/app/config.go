package app

import (
	"time"

	"github.com/yungbote/rolodex-backend/internal/platform/envutil"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	Version     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration

	PublicBaseURL string
	AutoMigrate   bool

	RateLimitRequests int
	RateLimitWindow   time.Duration
	UserCacheTTL      time.Duration

	AllowedOrigins []string

	MetricsAddr string
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		ServiceName: envutil.String("SERVICE_NAME", "rolodex"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailTokenTTL:   envutil.Seconds("EMAIL_TOKEN_TTL", 24*time.Hour),

		PublicBaseURL: envutil.String("PUBLIC_BASE_URL", "http://localhost:8080"),
		AutoMigrate:   envutil.Bool("DB_AUTO_MIGRATE", true),

		RateLimitRequests: envutil.Int("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   envutil.Seconds("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
		UserCacheTTL:      envutil.Seconds("USER_CACHE_TTL_SECONDS", 10*time.Minute),

		AllowedOrigins: envutil.CSV("CORS_ALLOWED_ORIGINS", nil),

		MetricsAddr: envutil.String("METRICS_ADDR", ":9100"),
	}
}
