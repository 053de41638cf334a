package handler

import (
	"merchant-payment-backend/internal/adapter/http/middleware"
	redisStore "merchant-payment-backend/internal/adapter/storage/redis"
	"merchant-payment-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PaymentSvc     ports.PaymentService
	MerchantSvc    ports.MerchantService
	TokenSvc       ports.TokenService
	APIKeyRepo     ports.APIKeyRepository
	MerchantRepo   ports.MerchantRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/refresh", rl("auth_login"), authHandler.Refresh)
		auth.POST("/password-reset", rl("password_reset"), authHandler.RequestPasswordReset)
		auth.POST("/password-reset/confirm", rl("password_reset"), authHandler.ConfirmPasswordReset)
	}

	sessionAuth := middleware.RequireAuth(deps.Logger, middleware.NewSessionStrategy(deps.TokenSvc))
	apiKeyAuth := middleware.RequireAuth(deps.Logger, middleware.NewAPIKeyStrategy(deps.APIKeyRepo, deps.MerchantRepo))

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	dashboardHandler := NewDashboardHandler(deps.PaymentSvc)
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)

	// --- API-key-authenticated routes (merchant integration) ---
	// Auth runs before the limiter so unauthenticated requests never consume
	// rate budget and the limiter keys by the resolved principal.
	v1.POST("/payments", apiKeyAuth, rl("payments"), paymentHandler.Create)
	v1.GET("/payments/:id", apiKeyAuth, rl("payments"), paymentHandler.Get)

	// --- Session-authenticated routes (dashboard) ---
	v1.GET("/payments", sessionAuth, rl("dashboard"), dashboardHandler.ListPayments)
	v1.POST("/payments/:id/transitions", sessionAuth, rl("payments"), paymentHandler.Transition)

	dashboard := v1.Group("/dashboard", sessionAuth)
	{
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	merchants := v1.Group("/merchants/me", sessionAuth)
	{
		merchants.GET("", rl("dashboard"), merchantHandler.GetProfile)
	}

	keys := v1.Group("/keys", sessionAuth)
	{
		keys.POST("", rl("dashboard"), merchantHandler.CreateAPIKey)
		keys.GET("", rl("dashboard"), merchantHandler.ListAPIKeys)
		keys.DELETE("/:id", rl("dashboard"), merchantHandler.RevokeAPIKey)
	}

	return r
}
