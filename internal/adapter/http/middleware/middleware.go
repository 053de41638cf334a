package middleware

import (
	"net/http"
	"strings"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"
	"merchant-payment-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderAPIKey carries the merchant's opaque API key.
	HeaderAPIKey = "X-API-Key"

	// Context keys
	CtxPrincipal = "principal"
	CtxRequestID = "request_id"
)

// Authenticator resolves a request into an authenticated principal.
// Failures return an apperror describing why.
type Authenticator interface {
	Authenticate(c *gin.Context) (*domain.Principal, error)
}

// SessionStrategy authenticates Bearer access tokens issued by the
// token service.
type SessionStrategy struct {
	tokenSvc ports.TokenService
}

// NewSessionStrategy creates a session-token authenticator.
func NewSessionStrategy(tokenSvc ports.TokenService) *SessionStrategy {
	return &SessionStrategy{tokenSvc: tokenSvc}
}

// Authenticate validates the Authorization header's access token.
func (s *SessionStrategy) Authenticate(c *gin.Context) (*domain.Principal, error) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, apperror.ErrInvalidToken()
	}

	claims, err := s.tokenSvc.ValidateAccess(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	return &domain.Principal{
		MerchantID: claims.MerchantID,
		Kind:       domain.PrincipalSession,
	}, nil
}

// APIKeyStrategy authenticates the X-API-Key header against stored
// keys and checks the owning merchant is active.
type APIKeyStrategy struct {
	keys      ports.APIKeyRepository
	merchants ports.MerchantRepository
}

// NewAPIKeyStrategy creates an API-key authenticator.
func NewAPIKeyStrategy(keys ports.APIKeyRepository, merchants ports.MerchantRepository) *APIKeyStrategy {
	return &APIKeyStrategy{keys: keys, merchants: merchants}
}

// Authenticate resolves the API key to its merchant.
func (s *APIKeyStrategy) Authenticate(c *gin.Context) (*domain.Principal, error) {
	key := c.GetHeader(HeaderAPIKey)
	if key == "" {
		return nil, apperror.ErrInvalidAPIKey()
	}

	ctx := c.Request.Context()
	apiKey, err := s.keys.GetByKey(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if apiKey == nil || apiKey.Revoked {
		return nil, apperror.ErrInvalidAPIKey()
	}

	merchant, err := s.merchants.GetByID(ctx, apiKey.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrInvalidAPIKey()
	}
	if !merchant.IsActive() {
		return nil, apperror.ErrMerchantSuspended()
	}

	return &domain.Principal{
		MerchantID: merchant.ID,
		Kind:       domain.PrincipalAPIKey,
		APIKeyID:   &apiKey.ID,
	}, nil
}

// RequireAuth tries the given strategies in order and installs the
// first principal that authenticates. When all fail, the last failure
// is returned to the client.
func RequireAuth(log zerolog.Logger, strategies ...Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lastErr error
		for _, strategy := range strategies {
			principal, err := strategy.Authenticate(c)
			if err == nil {
				c.Set(CtxPrincipal, principal)
				c.Next()
				return
			}
			lastErr = err
		}

		if lastErr == nil {
			lastErr = apperror.ErrInvalidToken()
		}
		log.Warn().
			Err(lastErr).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Msg("authentication rejected")
		response.Error(c, lastErr)
		c.Abort()
	}
}

// PrincipalFrom returns the authenticated principal installed by
// RequireAuth.
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, exists := c.Get(CtxPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok
}

// RequestID assigns every request a request id, honoring an inbound
// X-Request-ID header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize caps request body size.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
