package handler

import (
	"merchant-payment-backend/internal/adapter/http/dto"
	"merchant-payment-backend/internal/adapter/http/middleware"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"
	"merchant-payment-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant profile and API key management.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// GetProfile handles GET /api/v1/merchants/me.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant, err := h.merchantSvc.GetProfile(c.Request.Context(), principal.MerchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewMerchantResponse(merchant))
}

// CreateAPIKey handles POST /api/v1/keys. The plaintext key appears only
// in this response.
func (h *MerchantHandler) CreateAPIKey(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	key, err := h.merchantSvc.CreateAPIKey(c.Request.Context(), principal.MerchantID, req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.NewAPIKeyResponse(key)
	resp.Key = key.Key
	response.Created(c, resp)
}

// ListAPIKeys handles GET /api/v1/keys.
func (h *MerchantHandler) ListAPIKeys(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	keys, err := h.merchantSvc.ListAPIKeys(c.Request.Context(), principal.MerchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.APIKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, dto.NewAPIKeyResponse(&keys[i]))
	}

	response.OK(c, items)
}

// RevokeAPIKey handles DELETE /api/v1/keys/:id.
func (h *MerchantHandler) RevokeAPIKey(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest("id", "must be a UUID"))
		return
	}

	if err := h.merchantSvc.RevokeAPIKey(c.Request.Context(), principal.MerchantID, keyID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "API key revoked"})
}
