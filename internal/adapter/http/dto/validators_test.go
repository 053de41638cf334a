package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Email:    "  shop@example.com  ",
		Password: "  pass1234  ",
		Name:     " My Shop ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "shop@example.com", req.Email)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "My Shop", req.Name)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	desc := "order <script>alert('x')</script> notes"
	req := CreatePaymentRequest{
		Amount:      25.00,
		Currency:    "USDC",
		Description: &desc,
	}
	SanitizeStruct(&req)

	assert.Contains(t, *req.Description, "&lt;script&gt;")
	assert.NotContains(t, *req.Description, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	ext := "  order-42  "
	req := CreatePaymentRequest{
		Amount:     25.00,
		Currency:   "USDC",
		ExternalID: &ext,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "order-42", *req.ExternalID)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := CreatePaymentRequest{Amount: 25.00, Currency: "USDC"}
	SanitizeStruct(&req)
	assert.Nil(t, req.ExternalID)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"order-42",
		"ORDER_43",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"order 42",    // space
		"order<42>",   // angle brackets
		"order;DROP",  // semicolon
		"",            // empty
		"hello world", // space
		"order\n42",   // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

// --- Amount conversion tests ---

func TestMinorUnitsConversion(t *testing.T) {
	cases := []struct {
		decimal float64
		minor   int64
	}{
		{0.01, 1},
		{25.00, 2500},
		{1_000_000.00, 100_000_000},
		{19.99, 1999},
		{0.1 + 0.2, 30}, // float noise rounds away
	}
	for _, tc := range cases {
		assert.Equal(t, tc.minor, ToMinorUnits(tc.decimal))
	}

	assert.Equal(t, 25.00, FromMinorUnits(2500))
	assert.Equal(t, 0.01, FromMinorUnits(1))
}
