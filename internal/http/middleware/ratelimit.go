package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/ratelimit"
)

type RateLimitMiddleware struct {
	log     *logger.Logger
	limiter ratelimit.Limiter
}

func NewRateLimitMiddleware(log *logger.Logger, limiter ratelimit.Limiter) *RateLimitMiddleware {
	middlewareLog := log.With("middleware", "RateLimitMiddleware")
	return &RateLimitMiddleware{log: middlewareLog, limiter: limiter}
}

// PerUser enforces the per-user request budget. It must run behind
// RequireAuth; without a caller identity it passes the request through.
// A limiter backend failure also passes the request through: the
// limiter protects capacity, it is not an auth gate.
func (rm *RateLimitMiddleware) PerUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.limiter == nil {
			c.Next()
			return
		}
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.Next()
			return
		}

		res, err := rm.limiter.Allow(c.Request.Context(), rd.UserID.String())
		if err != nil {
			rm.log.Warn("Rate limit check failed (allowing request)", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rm.limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
			route := c.FullPath()
			if route == "" {
				route = c.Request.URL.Path
			}
			observability.Current().IncRateLimited(route)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "rate limit exceeded", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds rounds up so a client that waits the advertised
// time always lands in the next window.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
