package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/internal/core/ports/mocks"
	"merchant-payment-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockMerchantRepository,
	*mocks.MockAPIKeyRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
) {
	ctrl := gomock.NewController(t)
	merchantRepo := mocks.NewMockMerchantRepository(ctrl)
	apiKeyRepo := mocks.NewMockAPIKeyRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	svc := NewAuthService(merchantRepo, apiKeyRepo, hashSvc, tokenSvc, zerolog.Nop())
	return svc, merchantRepo, apiKeyRepo, hashSvc, tokenSvc
}

func activeMerchant(email string) *domain.Merchant {
	now := time.Now().UTC()
	return &domain.Merchant{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test Shop",
		PasswordHash: "$argon2id$hashed",
		Status:       domain.MerchantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, merchantRepo, apiKeyRepo, hashSvc, _ := setupAuthService(t)

	ctx := context.Background()
	req := ports.RegisterRequest{
		Email:    "shop@example.com",
		Password: "StrongP@ss123",
		Name:     "Test Shop",
	}

	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	merchantRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	apiKeyRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, k *domain.APIKey) error {
			assert.Equal(t, "default", k.Label)
			assert.True(t, strings.HasPrefix(k.Key, "mk_live_"))
			return nil
		})

	resp, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEqual(t, uuid.Nil, resp.MerchantID)
	assert.True(t, strings.HasPrefix(resp.APIKey, "mk_live_"))
	assert.Len(t, resp.APIKey, len("mk_live_")+48)
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	svc, merchantRepo, apiKeyRepo, hashSvc, _ := setupAuthService(t)

	ctx := context.Background()
	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(nil, nil)
	hashSvc.EXPECT().Hash(gomock.Any()).Return("h", nil)
	merchantRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, m *domain.Merchant) error {
			assert.Equal(t, "shop@example.com", m.Email)
			return nil
		})
	apiKeyRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	_, err := svc.Register(ctx, ports.RegisterRequest{
		Email:    "  Shop@Example.COM ",
		Password: "StrongP@ss123",
		Name:     "Shop",
	})
	require.NoError(t, err)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, merchantRepo, _, _, _ := setupAuthService(t)

	ctx := context.Background()
	merchantRepo.EXPECT().GetByEmail(ctx, "taken@example.com").
		Return(activeMerchant("taken@example.com"), nil)

	_, err := svc.Register(ctx, ports.RegisterRequest{
		Email:    "taken@example.com",
		Password: "StrongP@ss123",
		Name:     "Shop",
	})
	assert.ErrorIs(t, err, apperror.ErrEmailExists())
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, merchantRepo, _, hashSvc, tokenSvc := setupAuthService(t)

	ctx := context.Background()
	merchant := activeMerchant("shop@example.com")
	pair := &ports.SessionPair{AccessToken: "acc", RefreshToken: "ref"}

	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(merchant, nil)
	hashSvc.EXPECT().Verify("StrongP@ss123", merchant.PasswordHash).Return(true, nil)
	tokenSvc.EXPECT().IssuePair(ctx, merchant.ID).Return(pair, nil)

	got, err := svc.Login(ctx, "shop@example.com", "StrongP@ss123")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, merchantRepo, _, _, _ := setupAuthService(t)

	ctx := context.Background()
	merchantRepo.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	_, err := svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials())
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, merchantRepo, _, hashSvc, _ := setupAuthService(t)

	ctx := context.Background()
	merchant := activeMerchant("shop@example.com")
	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(merchant, nil)
	hashSvc.EXPECT().Verify("wrong", merchant.PasswordHash).Return(false, nil)

	_, err := svc.Login(ctx, "shop@example.com", "wrong")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials())
}

func TestAuthService_Login_SuspendedMerchant(t *testing.T) {
	svc, merchantRepo, _, hashSvc, _ := setupAuthService(t)

	ctx := context.Background()
	merchant := activeMerchant("shop@example.com")
	merchant.Status = domain.MerchantStatusSuspended

	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(merchant, nil)
	hashSvc.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(true, nil)

	_, err := svc.Login(ctx, "shop@example.com", "StrongP@ss123")
	assert.ErrorIs(t, err, apperror.ErrMerchantSuspended())
}

func TestAuthService_RequestPasswordReset_KnownEmail(t *testing.T) {
	svc, merchantRepo, _, _, tokenSvc := setupAuthService(t)

	ctx := context.Background()
	merchant := activeMerchant("shop@example.com")
	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(merchant, nil)
	tokenSvc.EXPECT().IssueResetTicket(ctx, merchant.ID).Return("ticket-hex", nil)

	ticket, err := svc.RequestPasswordReset(ctx, "shop@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ticket-hex", ticket)
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, merchantRepo, _, _, _ := setupAuthService(t)

	ctx := context.Background()
	merchantRepo.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	ticket, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err, "unknown emails must not be distinguishable")
	assert.Empty(t, ticket)
}

func TestAuthService_RequestPasswordReset_TicketStoreDown(t *testing.T) {
	svc, merchantRepo, _, _, tokenSvc := setupAuthService(t)

	ctx := context.Background()
	merchant := activeMerchant("shop@example.com")
	merchantRepo.EXPECT().GetByEmail(ctx, "shop@example.com").Return(merchant, nil)
	tokenSvc.EXPECT().IssueResetTicket(ctx, merchant.ID).
		Return("", apperror.InternalError(errors.New("redis down")))

	_, err := svc.RequestPasswordReset(ctx, "shop@example.com")
	assert.Error(t, err)
}

func TestAuthService_ConfirmPasswordReset(t *testing.T) {
	svc, _, _, _, tokenSvc := setupAuthService(t)

	ctx := context.Background()
	tokenSvc.EXPECT().ConsumeResetTicket(ctx, "good-ticket", "NewP@ss123").Return(true)
	tokenSvc.EXPECT().ConsumeResetTicket(ctx, "bad-ticket", "NewP@ss123").Return(false)

	assert.True(t, svc.ConfirmPasswordReset(ctx, "good-ticket", "NewP@ss123"))
	assert.False(t, svc.ConfirmPasswordReset(ctx, "bad-ticket", "NewP@ss123"))
}
