package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"merchant-payment-backend/internal/core/ports/mocks"
	"merchant-payment-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeCredentialStore is an in-memory ports.CredentialStore for tests
// where the GetDel claim-or-nothing behavior matters.
type fakeCredentialStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{data: make(map[string]string)}
}

func (f *fakeCredentialStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.failSet {
		return errors.New("store unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCredentialStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCredentialStore) GetDel(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.data[key]
	delete(f.data, key)
	return v, nil
}

func (f *fakeCredentialStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func testTokenConfig() TokenServiceConfig {
	return TokenServiceConfig{
		AccessSecret:  "access-secret-for-unit-tests",
		RefreshSecret: "refresh-secret-for-unit-tests",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "test-issuer",
		ResetTTL:      time.Hour,
	}
}

func TestJWTTokenService_IssuePairAndValidate(t *testing.T) {
	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, nil, nil)
	merchantID := uuid.New()

	pair, err := svc.IssuePair(context.Background(), merchantID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.After(time.Now()))

	claims, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, merchantID, claims.MerchantID)
	assert.NotEqual(t, uuid.Nil, claims.Family)
}

func TestJWTTokenService_RefreshTokenNotValidAsAccess(t *testing.T) {
	svc := NewJWTTokenService(testTokenConfig(), newFakeCredentialStore(), nil, nil)

	pair, err := svc.IssuePair(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken())
}

func TestJWTTokenService_ExpiredAccessToken(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessExpiry = -1 * time.Hour
	svc := NewJWTTokenService(cfg, newFakeCredentialStore(), nil, nil)

	pair, err := svc.IssuePair(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateAccess(pair.AccessToken)
	assert.Error(t, err, "expired token should fail validation")
}

func TestJWTTokenService_Refresh_Rotates(t *testing.T) {
	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, nil, nil)
	merchantID := uuid.New()

	pair1, err := svc.IssuePair(context.Background(), merchantID)
	require.NoError(t, err)

	pair2, err := svc.Refresh(context.Background(), pair1.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair1.RefreshToken, pair2.RefreshToken)

	claims, err := svc.ValidateAccess(pair2.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, merchantID, claims.MerchantID)
}

func TestJWTTokenService_Refresh_ReuseRevokesFamily(t *testing.T) {
	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, nil, nil)

	pair1, err := svc.IssuePair(context.Background(), uuid.New())
	require.NoError(t, err)

	pair2, err := svc.Refresh(context.Background(), pair1.RefreshToken)
	require.NoError(t, err)

	// Replaying the already-rotated token fails and tears down the family.
	_, err = svc.Refresh(context.Background(), pair1.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken())

	// The legitimate successor is now dead too.
	_, err = svc.Refresh(context.Background(), pair2.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken())
}

func TestJWTTokenService_Refresh_GarbageToken(t *testing.T) {
	svc := NewJWTTokenService(testTokenConfig(), newFakeCredentialStore(), nil, nil)

	_, err := svc.Refresh(context.Background(), "not.a.valid.jwt")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken())
}

func TestJWTTokenService_IssueResetTicket(t *testing.T) {
	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, nil, nil)
	merchantID := uuid.New()

	ticket, err := svc.IssueResetTicket(context.Background(), merchantID)
	require.NoError(t, err)
	assert.Len(t, ticket, 64, "ticket should be 32 random bytes hex-encoded")

	stored, err := store.Get(context.Background(), "reset:"+ticket)
	require.NoError(t, err)
	assert.Equal(t, merchantID.String(), stored)
}

func TestJWTTokenService_IssueResetTicket_StoreDown(t *testing.T) {
	store := newFakeCredentialStore()
	store.failSet = true
	svc := NewJWTTokenService(testTokenConfig(), store, nil, nil)

	ticket, err := svc.IssueResetTicket(context.Background(), uuid.New())
	assert.Error(t, err, "no ticket may be handed out if it was not recorded")
	assert.Empty(t, ticket)
}

func TestJWTTokenService_ConsumeResetTicket(t *testing.T) {
	ctrl := gomock.NewController(t)
	merchants := mocks.NewMockMerchantRepository(ctrl)
	hasher := mocks.NewMockHashService(ctrl)

	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, merchants, hasher)
	merchantID := uuid.New()

	ticket, err := svc.IssueResetTicket(context.Background(), merchantID)
	require.NoError(t, err)

	hasher.EXPECT().Hash("new-password-123").Return("$argon2id$hashed", nil)
	merchants.EXPECT().UpdatePassword(gomock.Any(), merchantID, "$argon2id$hashed").Return(nil)

	ok := svc.ConsumeResetTicket(context.Background(), ticket, "new-password-123")
	assert.True(t, ok)

	// Single use: the same ticket fails the second time.
	ok = svc.ConsumeResetTicket(context.Background(), ticket, "another-password")
	assert.False(t, ok)
}

func TestJWTTokenService_ConsumeResetTicket_Unknown(t *testing.T) {
	svc := NewJWTTokenService(testTokenConfig(), newFakeCredentialStore(), nil, nil)

	ok := svc.ConsumeResetTicket(context.Background(), "deadbeef", "password")
	assert.False(t, ok)
}

func TestJWTTokenService_ConsumeResetTicket_UpdateFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	merchants := mocks.NewMockMerchantRepository(ctrl)
	hasher := mocks.NewMockHashService(ctrl)

	store := newFakeCredentialStore()
	svc := NewJWTTokenService(testTokenConfig(), store, merchants, hasher)
	merchantID := uuid.New()

	ticket, err := svc.IssueResetTicket(context.Background(), merchantID)
	require.NoError(t, err)

	hasher.EXPECT().Hash(gomock.Any()).Return("hash", nil)
	merchants.EXPECT().UpdatePassword(gomock.Any(), merchantID, "hash").Return(errors.New("db down"))

	ok := svc.ConsumeResetTicket(context.Background(), ticket, "password")
	assert.False(t, ok)
}
