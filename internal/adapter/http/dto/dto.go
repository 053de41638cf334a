package dto

import (
	"math"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
)

// Amounts cross the API as decimal major units (25.00 = 2500 minor
// units) and are stored as int64 minor units internally.

// ToMinorUnits converts a decimal amount to minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts minor units back to a decimal amount.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// RegisterRequest is the request body for merchant registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// RegisterResponse is the response body for successful registration.
// The API key is shown only here.
type RegisterResponse struct {
	MerchantID string `json:"merchant_id"`
	APIKey     string `json:"api_key"`
}

// LoginRequest is the request body for merchant login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse carries a session token pair.
type SessionResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix timestamp
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PasswordResetRequest asks for a reset ticket by email.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetResponse acknowledges a reset request. The ticket is
// present only when one was issued; the message is identical either way.
type PasswordResetResponse struct {
	Message     string `json:"message"`
	ResetTicket string `json:"reset_ticket,omitempty"`
}

// PasswordResetConfirmRequest redeems a reset ticket.
type PasswordResetConfirmRequest struct {
	Ticket      string `json:"ticket" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// CreatePaymentRequest is the request body for payment creation.
type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,max=8"` // empty defaults to USDC
	ExternalID    *string `json:"external_id,omitempty" binding:"omitempty,min=1,max=255,safe_id"`
	ExpiresIn     *int    `json:"expires_in,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty" binding:"omitempty,email"`
	Description   *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

// TransitionRequest asks for a payment status change.
type TransitionRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

// CreateAPIKeyRequest is the request body for minting an API key.
type CreateAPIKeyRequest struct {
	Label string `json:"label" binding:"required,min=1,max=100"`
}

// PaymentResponse is the response body for a payment.
type PaymentResponse struct {
	ID            string  `json:"id"`
	ExternalID    *string `json:"external_id,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	Description   *string `json:"description,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
	ExpiresAt     string  `json:"expires_at"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// NewPaymentResponse maps a domain payment to its API shape.
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID.String(),
		ExternalID:    p.ExternalID,
		Amount:        FromMinorUnits(p.Amount),
		Currency:      string(p.Currency),
		Status:        string(p.Status),
		CustomerEmail: p.CustomerEmail,
		Description:   p.Description,
		FailureReason: p.FailureReason,
		ExpiresAt:     p.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// PaymentListResponse wraps a paginated payment list.
type PaymentListResponse struct {
	Items      []PaymentResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// NewPaymentListResponse maps a page of payments.
func NewPaymentListResponse(payments []domain.Payment, total int64, page, pageSize int) PaymentListResponse {
	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, NewPaymentResponse(&payments[i]))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PaymentListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// StatsResponse is the dashboard statistics payload.
type StatsResponse struct {
	Total      int64   `json:"total"`
	Created    int64   `json:"created"`
	Pending    int64   `json:"pending"`
	Paid       int64   `json:"paid"`
	Expired    int64   `json:"expired"`
	Failed     int64   `json:"failed"`
	Cancelled  int64   `json:"cancelled"`
	PaidVolume float64 `json:"paid_volume"`
}

// NewStatsResponse maps repository stats to the API shape.
func NewStatsResponse(s *ports.PaymentStats) StatsResponse {
	return StatsResponse{
		Total:      s.Total,
		Created:    s.Created,
		Pending:    s.Pending,
		Paid:       s.Paid,
		Expired:    s.Expired,
		Failed:     s.Failed,
		Cancelled:  s.Cancelled,
		PaidVolume: FromMinorUnits(s.PaidVolume),
	}
}

// MerchantResponse is the dashboard profile payload.
type MerchantResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// NewMerchantResponse maps a merchant to its API shape.
func NewMerchantResponse(m *domain.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:        m.ID.String(),
		Email:     m.Email,
		Name:      m.Name,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// APIKeyResponse is an API key as listed on the dashboard. The key
// itself is included only when freshly minted.
type APIKeyResponse struct {
	ID        string `json:"id"`
	Key       string `json:"key,omitempty"`
	Label     string `json:"label"`
	Revoked   bool   `json:"revoked"`
	CreatedAt string `json:"created_at"`
}

// NewAPIKeyResponse maps a key for listing, without the secret.
func NewAPIKeyResponse(k *domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID.String(),
		Label:     k.Label,
		Revoked:   k.Revoked,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
}
