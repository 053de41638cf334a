package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"created", PaymentStatusCreated, false},
		{"pending", PaymentStatusPending, false},
		{"paid", PaymentStatusPaid, true},
		{"expired", PaymentStatusExpired, true},
		{"failed", PaymentStatusFailed, true},
		{"cancelled", PaymentStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentStatusCreated: {PaymentStatusPending, PaymentStatusCancelled, PaymentStatusExpired},
		PaymentStatusPending: {PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed},
	}

	all := []PaymentStatus{
		PaymentStatusCreated, PaymentStatusPending, PaymentStatusPaid,
		PaymentStatusExpired, PaymentStatusFailed, PaymentStatusCancelled,
	}

	// Every (from, to) pair outside the allowed edge set must be rejected.
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusPaid.Valid())
	assert.False(t, PaymentStatus("SETTLED").Valid())
	assert.False(t, PaymentStatus("").Valid())
}

func TestSupportedCurrency(t *testing.T) {
	assert.True(t, SupportedCurrency("USDC"))
	assert.False(t, SupportedCurrency("USD"))
	assert.False(t, SupportedCurrency("usdc"))
	assert.False(t, SupportedCurrency(""))
}

func TestPayment_DueForExpiry(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		status    PaymentStatus
		expiresAt time.Time
		want      bool
	}{
		{"created past expiry", PaymentStatusCreated, now.Add(-time.Minute), true},
		{"created at expiry", PaymentStatusCreated, now, true},
		{"pending past expiry", PaymentStatusPending, now.Add(-time.Hour), true},
		{"created not yet due", PaymentStatusCreated, now.Add(time.Hour), false},
		{"paid past expiry", PaymentStatusPaid, now.Add(-time.Minute), false},
		{"cancelled past expiry", PaymentStatusCancelled, now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, p.DueForExpiry(now))
		})
	}
}

func TestMerchant_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		status MerchantStatus
		want   bool
	}{
		{"active", MerchantStatusActive, true},
		{"suspended", MerchantStatusSuspended, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Merchant{Status: tt.status}
			assert.Equal(t, tt.want, m.IsActive())
		})
	}
}

func TestAmountBounds(t *testing.T) {
	assert.Equal(t, int64(1), MinAmount)
	assert.Equal(t, int64(100_000_000), MaxAmount)
}

func TestExpiryBounds(t *testing.T) {
	assert.Equal(t, 5, MinExpiresIn)
	assert.Equal(t, 1440, MaxExpiresIn)
	assert.Equal(t, 60, DefaultExpiresIn)
}
