package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const apiKeyPrefix = "mk_live_"

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	merchantRepo ports.MerchantRepository
	apiKeyRepo   ports.APIKeyRepository
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	merchantRepo ports.MerchantRepository,
	apiKeyRepo ports.APIKeyRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	logger zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		merchantRepo: merchantRepo,
		apiKeyRepo:   apiKeyRepo,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		logger:       logger,
	}
}

// Register creates a new merchant account with an initial API key.
// The plaintext key is shown only in this response.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:           uuid.New(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Status:       domain.MerchantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	key, err := generateAPIKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}

	apiKey := &domain.APIKey{
		ID:         uuid.New(),
		MerchantID: merchant.ID,
		Key:        key,
		Label:      "default",
		CreatedAt:  now,
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create api key: %w", err))
	}

	s.logger.Info().Str("merchant_id", merchant.ID.String()).Msg("merchant registered")

	return &ports.RegisterResponse{
		MerchantID: merchant.ID,
		APIKey:     key,
	}, nil
}

// Login validates credentials and issues a session token pair.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.SessionPair, error) {
	merchant, err := s.merchantRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, merchant.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	if !merchant.IsActive() {
		return nil, apperror.ErrMerchantSuspended()
	}

	pair, err := s.tokenSvc.IssuePair(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a fresh session pair.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*ports.SessionPair, error) {
	return s.tokenSvc.Refresh(ctx, refreshToken)
}

// RequestPasswordReset issues a reset ticket for the merchant behind the
// email. An unknown email returns an empty ticket and no error, so the
// endpoint never reveals which addresses are registered.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	merchant, err := s.merchantRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return "", nil
	}

	ticket, err := s.tokenSvc.IssueResetTicket(ctx, merchant.ID)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("merchant_id", merchant.ID.String()).Msg("password reset requested")
	return ticket, nil
}

// ConfirmPasswordReset redeems a reset ticket against a new password.
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, ticket, newPassword string) bool {
	return s.tokenSvc.ConsumeResetTicket(ctx, ticket, newPassword)
}

// generateAPIKey produces a prefixed opaque key: mk_live_<48 hex chars>.
func generateAPIKey() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(bytes), nil
}
