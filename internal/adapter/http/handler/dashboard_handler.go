package handler

import (
	"strconv"

	"merchant-payment-backend/internal/adapter/http/dto"
	"merchant-payment-backend/internal/adapter/http/middleware"
	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"
	"merchant-payment-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles payment listing and statistics for the dashboard.
type DashboardHandler struct {
	paymentSvc ports.PaymentService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(paymentSvc ports.PaymentService) *DashboardHandler {
	return &DashboardHandler{paymentSvc: paymentSvc}
}

// ListPayments handles GET /api/v1/payments with dashboard filters.
func (h *DashboardHandler) ListPayments(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.PaymentListParams{
		MerchantID: principal.MerchantID,
		Page:       page,
		PageSize:   pageSize,
	}

	if s := c.Query("status"); s != "" {
		status := domain.PaymentStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		if v, err := strconv.ParseInt(f, 10, 64); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := strconv.ParseInt(t, 10, 64); err == nil {
			params.To = &v
		}
	}

	payments, total, err := h.paymentSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPaymentListResponse(payments, total, params.Page, params.PageSize))
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	period := c.DefaultQuery("period", "all")
	stats, err := h.paymentSvc.Stats(c.Request.Context(), principal.MerchantID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewStatsResponse(stats))
}
