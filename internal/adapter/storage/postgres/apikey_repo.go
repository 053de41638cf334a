package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-payment-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const apiKeyColumns = `id, merchant_id, key, label, revoked, created_at`

// APIKeyRepo implements ports.APIKeyRepository.
type APIKeyRepo struct {
	pool Pool
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(pool Pool) *APIKeyRepo {
	return &APIKeyRepo{pool: pool}
}

// Create inserts a new API key.
func (r *APIKeyRepo) Create(ctx context.Context, k *domain.APIKey) error {
	query := fmt.Sprintf(`INSERT INTO api_keys (%s) VALUES ($1, $2, $3, $4, $5, $6)`, apiKeyColumns)

	_, err := r.pool.Exec(ctx, query,
		k.ID, k.MerchantID, k.Key, k.Label, k.Revoked, k.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetByKey fetches an API key by its opaque key string.
func (r *APIKeyRepo) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE key = $1`, apiKeyColumns)

	k := &domain.APIKey{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&k.ID, &k.MerchantID, &k.Key, &k.Label, &k.Revoked, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return k, nil
}

// ListByMerchant fetches all of a merchant's keys, newest first.
func (r *APIKeyRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE merchant_id = $1 ORDER BY created_at DESC`, apiKeyColumns)

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		k := domain.APIKey{}
		if err := rows.Scan(&k.ID, &k.MerchantID, &k.Key, &k.Label, &k.Revoked, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api key rows: %w", err)
	}
	return keys, nil
}

// Revoke marks a key revoked, scoped to the owning merchant. Returns
// whether a key was actually revoked.
func (r *APIKeyRepo) Revoke(ctx context.Context, merchantID, keyID uuid.UUID) (bool, error) {
	query := `UPDATE api_keys SET revoked = TRUE WHERE id = $1 AND merchant_id = $2 AND NOT revoked`

	tag, err := r.pool.Exec(ctx, query, keyID, merchantID)
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
