package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/config"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

const (
	HeaderAPIKey     = "X-Api-Key"
	ContextCallerKey = "caller"
)

// anonymous acts as the zero identity. It can read but never passes an
// authority check.
var anonymous = &model.Caller{}

func AuthMiddleware(cfg *config.Config, dir *service.CallerDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		if apiKey == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				c.Set(ContextCallerKey, anonymous)
				c.Next()
				return
			}
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "missing API key", nil))
			c.Abort()
			return
		}

		caller, ok := dir.Lookup(apiKey)
		if !ok {
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid API key", nil))
			c.Abort()
			return
		}

		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller resolved by AuthMiddleware.
func CallerFrom(c *gin.Context) *model.Caller {
	if v, ok := c.Get(ContextCallerKey); ok {
		if caller, ok := v.(*model.Caller); ok {
			return caller
		}
	}
	return anonymous
}
