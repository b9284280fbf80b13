// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"fitcoach-service/internal/config"
	"fitcoach-service/internal/db"
	"fitcoach-service/internal/domain/billing"
	billingHandler "fitcoach-service/internal/handlers/billing"
	"fitcoach-service/internal/middleware"
	"fitcoach-service/internal/pkg/cache"
	"fitcoach-service/internal/pkg/jwt"
	"fitcoach-service/internal/repository/postgres"
	billingUsecase "fitcoach-service/internal/service/billing"
	"fitcoach-service/internal/service/processor"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer  *http.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	s.pool = pool

	// ----- Redis -----
	redisCfg := db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	}
	redisClient, err := db.NewRedisClient(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redisClient = redisClient
	log.Println("[REDIS] connected")

	// ----- JWT Verifier -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Repositories -----
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	subscriptionCache := cache.NewSubscriptionCache(redisClient)

	// ----- Payment Processor -----
	stripeClient := processor.NewStripeClient(s.cfg.StripeAPIKey, s.cfg.StripeWebhookSecret)

	// ----- Services (Usecases) -----
	checkoutCfg := billingUsecase.CheckoutConfig{
		PriceIDs: map[billing.Tier]string{
			billing.TierStarter: s.cfg.PriceStarter,
			billing.TierPro:     s.cfg.PricePro,
			billing.TierElite:   s.cfg.PriceElite,
		},
		TrialDays:  s.cfg.TrialDays,
		SuccessURL: s.cfg.CheckoutSuccessURL,
		CancelURL:  s.cfg.CheckoutCancelURL,
	}
	checkoutService := billingUsecase.NewCheckoutService(subscriptionRepo, stripeClient, checkoutCfg, logger)
	webhookService := billingUsecase.NewWebhookService(subscriptionRepo, stripeClient, subscriptionCache, logger)
	accessService := billingUsecase.NewAccessService(subscriptionRepo, subscriptionCache, logger)

	// ----- Handlers -----
	billingHandlerInst := billingHandler.NewBillingHandler(checkoutService, webhookService, accessService)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(verifier)
	entitlementMiddleware := middleware.NewEntitlementMiddleware(verifier, accessService, logger)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		BillingHandler:        billingHandlerInst,
		AuthMiddleware:        authMiddleware,
		EntitlementMiddleware: entitlementMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and releases the server's resources.
// Safe to call even when Start never got far enough to open them.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}

	return err
}
