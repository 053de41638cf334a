package service

import (
	"context"
	"fmt"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"
	"merchant-payment-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// validate backs field checks for callers that bypass the HTTP binding layer.
var validate = validator.New()

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	repo ports.PaymentRepository
	log  zerolog.Logger

	now func() time.Time
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(repo ports.PaymentRepository, log zerolog.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Create validates and inserts a new payment in CREATED status. An
// omitted currency defaults to USDC. When the request carries an
// external_id the call is idempotent per merchant: a replay with
// matching amount and currency returns the existing payment, a replay
// with different parameters is a conflict.
func (s *PaymentServiceImpl) Create(ctx context.Context, req ports.CreatePaymentRequest) (*domain.Payment, error) {
	if req.Currency == "" {
		req.Currency = domain.CurrencyUSDC
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiresIn := domain.DefaultExpiresIn
	if req.ExpiresIn != nil {
		expiresIn = *req.ExpiresIn
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		MerchantID:    req.MerchantID,
		ExternalID:    req.ExternalID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        domain.PaymentStatusCreated,
		CustomerEmail: req.CustomerEmail,
		Description:   req.Description,
		ExpiresAt:     now.Add(time.Duration(expiresIn) * time.Minute),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	inserted, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	if !inserted {
		// Lost the insert race or replayed an earlier request: the
		// winner's row is the payment of record.
		if req.ExternalID == nil {
			return nil, apperror.InternalError(fmt.Errorf("insert without external_id not applied"))
		}
		existing, err := s.repo.GetByExternalID(ctx, req.MerchantID, *req.ExternalID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("fetch existing payment: %w", err))
		}
		if existing == nil {
			return nil, apperror.InternalError(fmt.Errorf("payment with external_id %q vanished after conflict", *req.ExternalID))
		}
		if existing.Amount != req.Amount || existing.Currency != req.Currency {
			return nil, apperror.ErrIdempotencyConflict()
		}
		return s.maybeExpire(ctx, existing)
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Int64("amount", req.Amount).
		Msg("payment created")

	return payment, nil
}

// Get returns a merchant's payment, expiring it on read if its deadline
// has passed while it was still in an expirable status.
func (s *PaymentServiceImpl) Get(ctx context.Context, merchantID, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("payment")
	}

	return s.maybeExpire(ctx, payment)
}

// Transition moves a payment to the requested status. Re-requesting a
// terminal status the payment already holds is a no-op; every other
// repeated or unlisted edge is rejected, including PENDING -> PENDING.
// A reason is recorded only for FAILED.
func (s *PaymentServiceImpl) Transition(ctx context.Context, merchantID, paymentID uuid.UUID, to domain.PaymentStatus, reason *string) (*domain.Payment, error) {
	if !to.Valid() {
		return nil, apperror.ErrInvalidRequest("status", "unknown status")
	}

	payment, err := s.Get(ctx, merchantID, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status == to && payment.Status.IsTerminal() {
		return payment, nil
	}
	if !payment.Status.CanTransitionTo(to) {
		return nil, apperror.ErrInvalidTransition(string(payment.Status), string(to))
	}

	var failureReason *string
	if to == domain.PaymentStatusFailed {
		failureReason = reason
	}

	now := s.now().UTC()
	applied, err := s.repo.UpdateStatus(ctx, payment.ID, []domain.PaymentStatus{payment.Status}, to, failureReason, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}
	if !applied {
		// A concurrent writer moved the payment first. Report against
		// its current status.
		current, err := s.repo.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("refetch payment: %w", err))
		}
		if current == nil {
			return nil, apperror.ErrNotFound("payment")
		}
		if current.Status == to && current.Status.IsTerminal() {
			return current, nil
		}
		return nil, apperror.ErrInvalidTransition(string(current.Status), string(to))
	}

	payment.Status = to
	payment.FailureReason = failureReason
	payment.UpdatedAt = now

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(to)).
		Msg("payment transitioned")

	return payment, nil
}

// ExpireDue moves every expirable payment whose deadline has passed at
// now to EXPIRED and returns how many rows were affected.
func (s *PaymentServiceImpl) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.ExpireDue(ctx, now.UTC())
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("expire due payments: %w", err))
	}
	if count > 0 {
		s.log.Info().Int64("count", count).Msg("expired overdue payments")
	}
	return count, nil
}

// List returns a page of a merchant's payments, newest first.
func (s *PaymentServiceImpl) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, apperror.ErrInvalidRequest("status", "unknown status")
	}
	if params.From != nil && params.To != nil && *params.From > *params.To {
		return nil, 0, apperror.ErrInvalidRequest("from", "must not be after to")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	payments, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}
	return payments, total, nil
}

// Stats returns per-status counts and paid volume for a merchant over
// the requested period.
func (s *PaymentServiceImpl) Stats(ctx context.Context, merchantID uuid.UUID, period string) (*ports.PaymentStats, error) {
	var since *time.Time
	now := s.now().UTC()
	switch period {
	case "day":
		t := now.AddDate(0, 0, -1)
		since = &t
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		since = &t
	case "all", "":
		// No time filter
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	stats, err := s.repo.Stats(ctx, merchantID, since)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("payment stats: %w", err))
	}
	return stats, nil
}

// maybeExpire applies lazy expiry: a payment read past its deadline in
// an expirable status is flipped to EXPIRED before being returned.
func (s *PaymentServiceImpl) maybeExpire(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	now := s.now().UTC()
	if !payment.DueForExpiry(now) {
		return payment, nil
	}

	applied, err := s.repo.UpdateStatus(ctx, payment.ID,
		[]domain.PaymentStatus{domain.PaymentStatusCreated, domain.PaymentStatusPending},
		domain.PaymentStatusExpired, nil, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lazy expire: %w", err))
	}
	if applied {
		payment.Status = domain.PaymentStatusExpired
		payment.UpdatedAt = now
		return payment, nil
	}

	// Someone beat us to a terminal status; return what is actually there.
	current, err := s.repo.GetByID(ctx, payment.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("refetch payment: %w", err))
	}
	if current == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	return current, nil
}

func validateCreateRequest(req ports.CreatePaymentRequest) error {
	if req.Amount < domain.MinAmount || req.Amount > domain.MaxAmount {
		return apperror.ErrInvalidRequest("amount",
			fmt.Sprintf("must be between %d and %d minor units", domain.MinAmount, domain.MaxAmount))
	}
	if !domain.SupportedCurrency(req.Currency) {
		return apperror.ErrInvalidRequest("currency", "unsupported currency")
	}
	if req.ExternalID != nil {
		if *req.ExternalID == "" {
			return apperror.ErrInvalidRequest("external_id", "must not be empty")
		}
		if len(*req.ExternalID) > domain.MaxExternalIDLen {
			return apperror.ErrInvalidRequest("external_id",
				fmt.Sprintf("must be at most %d characters", domain.MaxExternalIDLen))
		}
	}
	if req.CustomerEmail != nil && validate.Var(*req.CustomerEmail, "required,email") != nil {
		return apperror.ErrInvalidRequest("customer_email", "must be a valid email address")
	}
	if req.ExpiresIn != nil && (*req.ExpiresIn < domain.MinExpiresIn || *req.ExpiresIn > domain.MaxExpiresIn) {
		return apperror.ErrInvalidRequest("expires_in",
			fmt.Sprintf("must be between %d and %d minutes", domain.MinExpiresIn, domain.MaxExpiresIn))
	}
	if req.Description != nil && len(*req.Description) > domain.MaxDescriptionLen {
		return apperror.ErrInvalidRequest("description",
			fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLen))
	}
	return nil
}
