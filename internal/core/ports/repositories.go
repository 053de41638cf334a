package ports

import (
	"context"
	"time"

	"merchant-payment-backend/internal/core/domain"

	"github.com/google/uuid"
)

// PaymentRepository defines persistence operations for payments. Uniqueness of
// (merchant_id, external_id) and the compare-and-set transition guard live at
// this level so multiple server processes stay consistent without in-process
// locks.
type PaymentRepository interface {
	// Create inserts the payment. Returns false without error when a row with
	// the same (merchant_id, external_id) already exists; the caller re-fetches
	// the winner instead of failing.
	Create(ctx context.Context, p *domain.Payment) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByExternalID(ctx context.Context, merchantID uuid.UUID, externalID string) (*domain.Payment, error)
	// UpdateStatus applies status -> to only if the current status is one of
	// from. Returns false when no row matched (missing id or lost CAS race).
	UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus, reason *string, updatedAt time.Time) (bool, error)
	// ExpireDue sweeps every CREATED/PENDING payment with expires_at <= now to
	// EXPIRED and reports how many rows changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	// Dashboard queries
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
	Stats(ctx context.Context, merchantID uuid.UUID, since *time.Time) (*PaymentStats, error)
}

// PaymentListParams holds filter + pagination for listing payments.
type PaymentListParams struct {
	MerchantID uuid.UUID
	Status     *domain.PaymentStatus
	From       *int64 // Unix timestamp
	To         *int64 // Unix timestamp
	Page       int
	PageSize   int
}

// PaymentStats holds aggregated per-status counts for the dashboard.
type PaymentStats struct {
	Total      int64
	Created    int64
	Pending    int64
	Paid       int64
	Expired    int64
	Failed     int64
	Cancelled  int64
	PaidVolume int64 // Sum of PAID amounts, minor units
}

// MerchantRepository is the merchant directory: lookup and credential update.
type MerchantRepository interface {
	Create(ctx context.Context, m *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// APIKeyRepository defines persistence for merchant API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, k *domain.APIKey) error
	GetByKey(ctx context.Context, key string) (*domain.APIKey, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.APIKey, error)
	// Revoke marks the key revoked. Returns false when the key does not exist
	// or belongs to another merchant.
	Revoke(ctx context.Context, merchantID, id uuid.UUID) (bool, error)
}
