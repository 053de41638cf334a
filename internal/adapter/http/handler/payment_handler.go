package handler

import (
	"merchant-payment-backend/internal/adapter/http/dto"
	"merchant-payment-backend/internal/adapter/http/middleware"
	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"
	"merchant-payment-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles the merchant-facing payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Create handles POST /api/v1/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	payment, err := h.paymentSvc.Create(c.Request.Context(), ports.CreatePaymentRequest{
		MerchantID:    principal.MerchantID,
		Amount:        dto.ToMinorUnits(req.Amount),
		Currency:      req.Currency,
		ExternalID:    req.ExternalID,
		ExpiresIn:     req.ExpiresIn,
		CustomerEmail: req.CustomerEmail,
		Description:   req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewPaymentResponse(payment))
}

// Get handles GET /api/v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest("id", "must be a UUID"))
		return
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), principal.MerchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPaymentResponse(payment))
}

// Transition handles POST /api/v1/payments/:id/transitions.
func (h *PaymentHandler) Transition(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest("id", "must be a UUID"))
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	payment, err := h.paymentSvc.Transition(c.Request.Context(), principal.MerchantID, id, domain.PaymentStatus(req.Status), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPaymentResponse(payment))
}
