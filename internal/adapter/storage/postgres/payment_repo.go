package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, merchant_id, external_id, amount, currency, status,
	customer_email, description, failure_reason, expires_at, created_at, updated_at`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a payment. The partial unique index on
// (merchant_id, external_id) makes the insert a no-op when the same
// external_id already exists for the merchant; the return value reports
// whether a row was actually written.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO payments (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (merchant_id, external_id) WHERE external_id IS NOT NULL DO NOTHING`,
		paymentColumns)

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.MerchantID, p.ExternalID, p.Amount, p.Currency, p.Status,
		p.CustomerEmail, p.Description, p.FailureReason,
		p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID fetches a payment by UUID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return r.scanPayment(r.pool.QueryRow(ctx, query, id))
}

// GetByExternalID fetches a merchant's payment by its external id.
func (r *PaymentRepo) GetByExternalID(ctx context.Context, merchantID uuid.UUID, externalID string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE merchant_id = $1 AND external_id = $2`, paymentColumns)
	return r.scanPayment(r.pool.QueryRow(ctx, query, merchantID, externalID))
}

// UpdateStatus moves a payment to a new status if and only if it is
// still in one of the expected statuses. Returns whether the row moved.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus, reason *string, updatedAt time.Time) (bool, error) {
	query := `UPDATE payments SET status = $2, failure_reason = $3, updated_at = $4
		WHERE id = $1 AND status = ANY($5)`

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	tag, err := r.pool.Exec(ctx, query, id, to, reason, updatedAt, fromStrs)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireDue flips every expirable payment past its deadline to EXPIRED
// in a single statement.
func (r *PaymentRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE payments SET status = 'EXPIRED', updated_at = $1
		WHERE status IN ('CREATED', 'PENDING') AND expires_at <= $1`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire due payments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List fetches payments with filtering and pagination.
func (r *PaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", argIdx))
	args = append(args, params.MerchantID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p := domain.Payment{}
		err := rows.Scan(
			&p.ID, &p.MerchantID, &p.ExternalID, &p.Amount, &p.Currency, &p.Status,
			&p.CustomerEmail, &p.Description, &p.FailureReason,
			&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment rows: %w", err)
	}
	return payments, total, nil
}

// Stats retrieves per-status counts and paid volume for a merchant.
func (r *PaymentRepo) Stats(ctx context.Context, merchantID uuid.UUID, since *time.Time) (*ports.PaymentStats, error) {
	var args []any
	argIdx := 1

	condition := fmt.Sprintf("merchant_id = $%d", argIdx)
	args = append(args, merchantID)
	argIdx++

	if since != nil {
		condition += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'CREATED') AS created,
		COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
		COUNT(*) FILTER (WHERE status = 'PAID') AS paid,
		COUNT(*) FILTER (WHERE status = 'EXPIRED') AS expired,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled,
		COALESCE(SUM(amount) FILTER (WHERE status = 'PAID'), 0) AS paid_volume
		FROM payments WHERE %s`, condition)

	stats := &ports.PaymentStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Created, &stats.Pending, &stats.Paid,
		&stats.Expired, &stats.Failed, &stats.Cancelled, &stats.PaidVolume,
	)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	return stats, nil
}

func (r *PaymentRepo) scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(
		&p.ID, &p.MerchantID, &p.ExternalID, &p.Amount, &p.Currency, &p.Status,
		&p.CustomerEmail, &p.Description, &p.FailureReason,
		&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}
