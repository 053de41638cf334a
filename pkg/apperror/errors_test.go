package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	plain := New("PAY_004", "payment not found", 404)
	assert.Equal(t, "[PAY_004] payment not found", plain.Error())

	wrapped := Wrap("SYS_001", "Internal server error", 500, fmt.Errorf("pg: connection closed"))
	assert.Contains(t, wrapped.Error(), "pg: connection closed")
}

func TestValidationErrors(t *testing.T) {
	err := ErrInvalidRequest("amount", "must be between 0.01 and 1000000")
	assert.Equal(t, "REQ_001", err.Code)
	assert.Equal(t, 400, err.HTTPStatus)
	assert.Contains(t, err.Message, "amount")

	free := Validation("cannot parse body")
	assert.Equal(t, "REQ_001", free.Code)
}

func TestLifecycleErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"IdempotencyConflict", ErrIdempotencyConflict(), "PAY_002", 409},
		{"InvalidTransition", ErrInvalidTransition("PAID", "EXPIRED"), "PAY_003", 409},
		{"NotFound", ErrNotFound("payment"), "PAY_004", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_002", 401},
		{"InvalidAPIKey", ErrInvalidAPIKey(), "AUTH_003", 401},
		{"MerchantSuspended", ErrMerchantSuspended(), "AUTH_004", 403},
		{"EmailExists", ErrEmailExists(), "AUTH_005", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestInternalError_WrapsCause(t *testing.T) {
	inner := fmt.Errorf("redis: connection refused")
	err := InternalError(inner)
	assert.Equal(t, "SYS_001", err.Code)
	assert.Equal(t, 500, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))
	// Client-facing message never carries the cause.
	assert.Equal(t, "Internal server error", err.Message)
}

func TestErrorsIs_MatchesByCode(t *testing.T) {
	assert.True(t, errors.Is(ErrInvalidToken(), ErrInvalidToken()))
	assert.False(t, errors.Is(ErrInvalidToken(), ErrInvalidAPIKey()))

	wrapped := fmt.Errorf("middleware: %w", ErrInvalidToken())
	assert.True(t, errors.Is(wrapped, ErrInvalidToken()))
}

func TestTransitionMessageNamesStates(t *testing.T) {
	err := ErrInvalidTransition("PAID", "EXPIRED")
	assert.Contains(t, err.Message, "PAID")
	assert.Contains(t, err.Message, "EXPIRED")
}
