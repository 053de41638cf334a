package ports

import (
	"context"
	"time"

	"merchant-payment-backend/internal/core/domain"

	"github.com/google/uuid"
)

// CredentialStore is a key-value store with per-key expiration, used for
// refresh-token families and password-reset tickets. Entries are only ever
// mutated via single-key atomic operations.
type CredentialStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns "", nil when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and deletes. Returns "", nil when absent.
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// SessionPair is an access/refresh token pair issued at login or rotation.
type SessionPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// TokenClaims holds the validated access-token claims.
type TokenClaims struct {
	MerchantID uuid.UUID
	Family     uuid.UUID
}

// TokenService mints and validates session credentials and manages single-use
// password-reset tickets.
type TokenService interface {
	// IssuePair starts a new token family for the merchant.
	IssuePair(ctx context.Context, merchantID uuid.UUID) (*SessionPair, error)
	// Refresh exchanges a refresh token exactly once; presenting an already
	// rotated token revokes the whole family.
	Refresh(ctx context.Context, refreshToken string) (*SessionPair, error)
	ValidateAccess(tokenString string) (*TokenClaims, error)
	// IssueResetTicket stores an opaque single-use ticket with a fixed TTL.
	// The ticket is only returned once the store write succeeded.
	IssueResetTicket(ctx context.Context, merchantID uuid.UUID) (string, error)
	// ConsumeResetTicket applies the password update behind a valid ticket.
	// Absent, expired and internally failed lookups are indistinguishable:
	// all report false.
	ConsumeResetTicket(ctx context.Context, token, newPassword string) bool
}

// --- Service Ports (Business Logic) ---

// PaymentService is the payment lifecycle manager.
type PaymentService interface {
	Create(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error)
	// Get returns the merchant's payment, lazily expiring it when overdue.
	Get(ctx context.Context, merchantID, id uuid.UUID) (*domain.Payment, error)
	Transition(ctx context.Context, merchantID, id uuid.UUID, target domain.PaymentStatus, reason *string) (*domain.Payment, error)
	// ExpireDue is the sweep entry point, safe to run concurrently with
	// ordinary transitions.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
	Stats(ctx context.Context, merchantID uuid.UUID, period string) (*PaymentStats, error)
}

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	MerchantID    uuid.UUID
	Amount        int64 // minor units
	Currency      string
	ExternalID    *string
	ExpiresIn     *int // minutes
	CustomerEmail *string
	Description   *string
}

// AuthService defines merchant account authentication flows.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*SessionPair, error)
	Refresh(ctx context.Context, refreshToken string) (*SessionPair, error)
	// RequestPasswordReset returns the ticket for a known email and "" for an
	// unknown one; callers cannot distinguish the two outcomes via errors.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) bool
}

// RegisterRequest holds input for merchant registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// RegisterResponse holds the registration result. The API key plaintext is
// shown only once.
type RegisterResponse struct {
	MerchantID uuid.UUID
	APIKey     string
}

// MerchantService defines dashboard-side merchant and API-key management.
type MerchantService interface {
	GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error)
	CreateAPIKey(ctx context.Context, merchantID uuid.UUID, label string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context, merchantID uuid.UUID) ([]domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, merchantID, keyID uuid.UUID) error
}
