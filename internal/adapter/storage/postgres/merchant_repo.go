package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-payment-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const merchantColumns = `id, email, name, password_hash, status, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant into the database.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := fmt.Sprintf(`INSERT INTO merchants (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`, merchantColumns)

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Email, m.Name, m.PasswordHash, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE id = $1`, merchantColumns)
	return r.scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a merchant by email.
func (r *MerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE email = $1`, merchantColumns)
	return r.scanMerchant(r.pool.QueryRow(ctx, query, email))
}

// UpdatePassword replaces a merchant's password hash.
func (r *MerchantRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE merchants SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update merchant password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

func (r *MerchantRepo) scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Email, &m.Name, &m.PasswordHash, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
