package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchant-payment-backend/config"
	httpHandler "merchant-payment-backend/internal/adapter/http/handler"
	pgStorage "merchant-payment-backend/internal/adapter/storage/postgres"
	redisStorage "merchant-payment-backend/internal/adapter/storage/redis"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/internal/service"
	"merchant-payment-backend/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Merchant Payment Backend")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	apiKeyRepo := pgStorage.NewAPIKeyRepo(pool)

	// Initialize Redis stores
	credentialStore := redisStorage.NewCredentialStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(service.TokenServiceConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessExpiry:  cfg.JWT.AccessExpiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
		Issuer:        cfg.JWT.Issuer,
		ResetTTL:      cfg.Reset.TicketTTL,
	}, credentialStore, merchantRepo, hashSvc)

	// Initialize business services
	authSvc := service.NewAuthService(merchantRepo, apiKeyRepo, hashSvc, tokenSvc, log)
	paymentSvc := service.NewPaymentService(paymentRepo, log)
	merchantSvc := service.NewMerchantService(merchantRepo, apiKeyRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PaymentSvc:     paymentSvc,
		MerchantSvc:    merchantSvc,
		TokenSvc:       tokenSvc,
		APIKeyRepo:     apiKeyRepo,
		MerchantRepo:   merchantRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// Background expiry sweeper
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go runExpirySweeper(sweepCtx, paymentSvc, cfg.Payment.SweepInterval, log, sweeperDone)

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweeper()
	<-sweeperDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runExpirySweeper periodically moves overdue CREATED/PENDING payments to
// EXPIRED. Lazy expiry on read covers payments the sweeper has not reached
// yet, so a missed tick is not a correctness problem.
func runExpirySweeper(ctx context.Context, paymentSvc ports.PaymentService, interval time.Duration, log zerolog.Logger, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Expiry sweeper stopped")
			return
		case now := <-ticker.C:
			expired, err := paymentSvc.ExpireDue(ctx, now.UTC())
			if err != nil {
				log.Error().Err(err).Msg("Expiry sweep failed")
				continue
			}
			if expired > 0 {
				log.Info().Int64("expired", expired).Msg("Expiry sweep completed")
			}
		}
	}
}
