package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

// RateLimitMiddleware must run after AuthMiddleware. Anonymous callers have
// no limiter and pass through.
func RateLimitMiddleware(dir *service.CallerDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		limiter := dir.Limiter(caller.Identity)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
