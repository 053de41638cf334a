package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"merchant-payment-backend/internal/core/domain"
	"merchant-payment-backend/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Email == m.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.PasswordHash = passwordHash
	m.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Payment Repo ---

// inMemoryPaymentRepo mirrors the postgres repo's concurrency contract: the
// uniqueness check in Create and the status guard in UpdateStatus are applied
// atomically under one lock, so racing callers observe the same outcomes as
// with the real unique index and compare-and-set UPDATE.
type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[uuid.UUID]*domain.Payment)}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, p *domain.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ExternalID != nil {
		for _, existing := range r.payments {
			if existing.MerchantID == p.MerchantID && existing.ExternalID != nil && *existing.ExternalID == *p.ExternalID {
				return false, nil
			}
		}
	}
	cp := *p
	r.payments[p.ID] = &cp
	return true, nil
}

func (r *inMemoryPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPaymentRepo) GetByExternalID(ctx context.Context, merchantID uuid.UUID, externalID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.MerchantID == merchantID && p.ExternalID != nil && *p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus, reason *string, updatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if p.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	p.Status = to
	p.FailureReason = reason
	p.UpdatedAt = updatedAt
	return true, nil
}

func (r *inMemoryPaymentRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, p := range r.payments {
		if p.DueForExpiry(now) {
			p.Status = domain.PaymentStatusExpired
			p.FailureReason = nil
			p.UpdatedAt = now
			swept++
		}
	}
	return swept, nil
}

func (r *inMemoryPaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Payment
	for _, p := range r.payments {
		if p.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.From != nil && p.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && p.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Payment{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryPaymentRepo) Stats(ctx context.Context, merchantID uuid.UUID, since *time.Time) (*ports.PaymentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.PaymentStats{}
	for _, p := range r.payments {
		if p.MerchantID != merchantID {
			continue
		}
		if since != nil && p.CreatedAt.Before(*since) {
			continue
		}
		stats.Total++
		switch p.Status {
		case domain.PaymentStatusCreated:
			stats.Created++
		case domain.PaymentStatusPending:
			stats.Pending++
		case domain.PaymentStatusPaid:
			stats.Paid++
			stats.PaidVolume += p.Amount
		case domain.PaymentStatusExpired:
			stats.Expired++
		case domain.PaymentStatusFailed:
			stats.Failed++
		case domain.PaymentStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// --- In-Memory API Key Repo ---

type inMemoryAPIKeyRepo struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]*domain.APIKey
}

func newInMemoryAPIKeyRepo() *inMemoryAPIKeyRepo {
	return &inMemoryAPIKeyRepo{keys: make(map[uuid.UUID]*domain.APIKey)}
}

func (r *inMemoryAPIKeyRepo) Create(ctx context.Context, k *domain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *k
	r.keys[k.ID] = &cp
	return nil
}

func (r *inMemoryAPIKeyRepo) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.keys {
		if k.Key == key {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAPIKeyRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.APIKey
	for _, k := range r.keys {
		if k.MerchantID == merchantID {
			result = append(result, *k)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryAPIKeyRepo) Revoke(ctx context.Context, merchantID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok || k.MerchantID != merchantID || k.Revoked {
		return false, nil
	}
	k.Revoked = true
	return true, nil
}
