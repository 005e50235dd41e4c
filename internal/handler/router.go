package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoPolymarket/whaleledger/internal/config"
	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

// Handlers groups everything the v1 API serves.
type Handlers struct {
	Config       *ConfigHandler
	Subscription *SubscriptionHandler
	Registry     *RegistryHandler
	Signal       *SignalHandler
	Movement     *MovementHandler
	Payment      *PaymentHandler
}

// RegisterRoutes mounts health, metrics and the v1 API on r.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, callers *service.CallerDirectory, idem middleware.IdempotencyStore, h Handlers) {
	// asset symbols such as BTC/USD travel escaped (BTC%2FUSD) in one segment
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "whaleledger"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, callers))
	v1.Use(middleware.RateLimitMiddleware(callers))
	v1.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	v1.Use(middleware.IdempotencyMiddleware(idem))
	{
		v1.POST("/config", h.Config.Initialize)
		v1.GET("/config", h.Config.Get)
		v1.PUT("/config/paused", h.Config.SetPaused)
		v1.PUT("/config/pricing", h.Config.UpdatePricing)
		v1.PUT("/config/payout", h.Config.SetPayoutDestination)

		v1.POST("/subscriptions", h.Subscription.Subscribe)
		v1.GET("/subscriptions/:owner", h.Subscription.Get)

		v1.POST("/registry", h.Registry.Initialize)
		v1.GET("/registry", h.Registry.Get)
		v1.POST("/traders", h.Registry.AddTrader)
		v1.GET("/traders", h.Registry.ListTraders)
		v1.GET("/traders/:address", h.Registry.GetTrader)
		v1.PUT("/traders/:address", h.Registry.UpdateTrader)
		v1.PUT("/traders/:address/link", h.Registry.LinkTrader)
		v1.DELETE("/traders/:address", h.Registry.RemoveTrader)

		v1.POST("/signals", h.Signal.Publish)
		v1.GET("/signals", h.Signal.List)
		v1.GET("/signals/:asset/:detectedAt", h.Signal.Get)

		v1.POST("/movements", h.Movement.Notify)
		v1.GET("/movements/stream", h.Movement.Stream)

		v1.POST("/payments/credit", h.Payment.Credit)
		v1.GET("/payments/balance/:owner", h.Payment.Balance)
	}
}
