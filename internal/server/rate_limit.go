package server

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/revbox/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	scopeUpload  = "uploads"
	scopeSuggest = "suggest-mappings"
)

// RateLimit spends one token per request from the caller's bucket for scope.
// Callers are keyed by X-User-Id, falling back to the client IP.
func (s *Server) RateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		caller := c.GetString(contextUserIDKey)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}

		res, err := s.limiter.Allow(ctx, scope, caller)
		if err != nil {
			logger.FromContext(ctx).Warn("rate limit check failed",
				zap.String("scope", scope),
				zap.Error(err),
			)
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			logger.FromContext(ctx).Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("endpoint", c.FullPath()),
			)
			c.Header("Retry-After", retryAfterSeconds(res.RetryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
