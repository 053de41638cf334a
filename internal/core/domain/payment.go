package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "CREATED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// transitions is the allowed edge set of the payment state machine.
// PAID, EXPIRED, FAILED and CANCELLED are terminal.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated: {PaymentStatusPending, PaymentStatusCancelled, PaymentStatusExpired},
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusPending, PaymentStatusPaid,
		PaymentStatusExpired, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is permitted from s.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> target is a legal edge.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// CurrencyUSDC is the single supported settlement currency.
const CurrencyUSDC = "USDC"

// SupportedCurrency reports whether c can be used for payment creation.
func SupportedCurrency(c string) bool {
	return c == CurrencyUSDC
}

// Amount bounds in minor units (1 unit = 0.01 USDC).
const (
	MinAmount int64 = 1           // 0.01
	MaxAmount int64 = 100_000_000 // 1,000,000.00
)

// Expiry window bounds in minutes.
const (
	MinExpiresIn     = 5
	MaxExpiresIn     = 1440
	DefaultExpiresIn = 60
)

const (
	MaxExternalIDLen  = 255
	MaxDescriptionLen = 500
)

// Payment represents a payment transaction. Records are append-only:
// status transitions mutate them, nothing deletes them.
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	MerchantID    uuid.UUID     `json:"merchant_id"`
	ExternalID    *string       `json:"external_id,omitempty"` // merchant-supplied idempotency key
	Amount        int64         `json:"amount"`                // minor units
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	CustomerEmail *string       `json:"customer_email,omitempty"`
	Description   *string       `json:"description,omitempty"`
	FailureReason *string       `json:"failure_reason,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsTerminal returns true if the payment is in a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// Expirable reports whether the payment is still subject to expiry.
func (p *Payment) Expirable() bool {
	return p.Status == PaymentStatusCreated || p.Status == PaymentStatusPending
}

// DueForExpiry reports whether the payment should be swept to EXPIRED at now.
func (p *Payment) DueForExpiry(now time.Time) bool {
	return p.Expirable() && !p.ExpiresAt.After(now)
}
