package service

import (
	"context"
	"fmt"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	apiKeyRepo   ports.APIKeyRepository
	log          zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	apiKeyRepo ports.APIKeyRepository,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		merchantRepo: merchantRepo,
		apiKeyRepo:   apiKeyRepo,
		log:          log,
	}
}

// GetProfile returns the merchant's account data.
func (s *MerchantServiceImpl) GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	return merchant, nil
}

// CreateAPIKey mints an additional API key for the merchant. The
// plaintext key appears only in this response.
func (s *MerchantServiceImpl) CreateAPIKey(ctx context.Context, merchantID uuid.UUID, label string) (*domain.APIKey, error) {
	key, err := generateAPIKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}

	apiKey := &domain.APIKey{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Key:        key,
		Label:      label,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create api key: %w", err))
	}

	s.log.Info().
		Str("merchant_id", merchantID.String()).
		Str("key_id", apiKey.ID.String()).
		Msg("api key created")

	return apiKey, nil
}

// ListAPIKeys returns the merchant's keys, revoked ones included.
func (s *MerchantServiceImpl) ListAPIKeys(ctx context.Context, merchantID uuid.UUID) ([]domain.APIKey, error) {
	keys, err := s.apiKeyRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list api keys: %w", err))
	}
	return keys, nil
}

// RevokeAPIKey revokes one of the merchant's keys. Revoking a key that
// does not belong to the merchant reports not found.
func (s *MerchantServiceImpl) RevokeAPIKey(ctx context.Context, merchantID, keyID uuid.UUID) error {
	revoked, err := s.apiKeyRepo.Revoke(ctx, merchantID, keyID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("revoke api key: %w", err))
	}
	if !revoked {
		return apperror.ErrNotFound("api key")
	}

	s.log.Info().
		Str("merchant_id", merchantID.String()).
		Str("key_id", keyID.String()).
		Msg("api key revoked")

	return nil
}
