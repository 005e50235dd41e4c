package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/config"
	"github.com/GoPolymarket/whaleledger/internal/events"
	"github.com/GoPolymarket/whaleledger/internal/handler"
	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/payment"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/repository"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	mint, err := service.ParseIdentity(cfg.Payment.Mint)
	if err != nil {
		log.Fatalf("Invalid payment mint: %v", err)
	}

	// 2. Initialize Persistence (Postgres > Memory)
	var store repository.Store
	if cfg.Database.DSN != "" {
		pgStore, err := openPostgres(cfg)
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			store = pgStore
		} else {
			logger.Error("Failed to open ledger database, falling back to memory", "error", err)
		}
	}
	if store == nil {
		store = repository.NewMemoryStore()
	}
	defer store.Close()

	// 3. Movement fan-out (Redis > in-process hub)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	hub := events.NewHub(0)
	var publisher events.Publisher = hub
	var idempotency middleware.IdempotencyStore = middleware.NewInMemIdempotencyStore()
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
			defer redisClient.Close()
			// every instance relays the shared channel into its own hub
			publisher = redisClient
			idempotency = repository.NewRedisIdempotencyStore(redisClient.Client, 24*time.Hour)
			go func() {
				if err := redisClient.Relay(relayCtx, hub); err != nil {
					logger.Error("movement relay stopped", "error", err)
				}
			}()
		} else {
			logger.Error("Failed to connect to Redis, falling back to in-process events", "error", err)
		}
	}

	// 4. Initialize Core Services
	callers, err := service.NewCallerDirectory(cfg)
	if err != nil {
		log.Fatalf("Invalid caller configuration: %v", err)
	}
	clock := service.SystemClock{}
	ledger := payment.NewTokenLedger(store)

	configSvc := service.NewConfigService(store)
	subscriptionSvc := service.NewSubscriptionService(store, ledger, clock, mint)
	registrySvc := service.NewRegistryService(store, clock)
	signalSvc := service.NewSignalService(store)
	notifier := service.NewMovementNotifier(store, publisher, clock)
	fundingSvc := service.NewFundingService(store, ledger, mint)

	// 5. Setup Router
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r, cfg, callers, idempotency, handler.Handlers{
		Config:       handler.NewConfigHandler(configSvc, cfg.Payment.Decimals),
		Subscription: handler.NewSubscriptionHandler(subscriptionSvc, clock, cfg.Payment.Decimals),
		Registry:     handler.NewRegistryHandler(registrySvc),
		Signal:       handler.NewSignalHandler(signalSvc),
		Movement:     handler.NewMovementHandler(notifier, hub),
		Payment:      handler.NewPaymentHandler(fundingSvc, cfg.Payment.Decimals),
	})

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("whaleledger started", "port", cfg.Server.Port, "callers", callers.Len(), "read_only", cfg.Server.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopRelay()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

func openPostgres(cfg *config.Config) (*repository.PostgresStore, error) {
	db, err := repository.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgresStore(db)
}
