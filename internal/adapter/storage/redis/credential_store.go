package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CredentialStore implements ports.CredentialStore using Redis. It
// backs refresh-token families and password-reset tickets; GETDEL gives
// the single-use semantics both rely on.
type CredentialStore struct {
	client *goredis.Client
}

// NewCredentialStore creates a new Redis-backed credential store.
func NewCredentialStore(client *goredis.Client) *CredentialStore {
	return &CredentialStore{client: client}
}

// Set stores a value under key with the given TTL.
func (s *CredentialStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis credential set: %w", err)
	}
	return nil
}

// Get retrieves a value. An absent key returns "" with no error.
func (s *CredentialStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis credential get: %w", err)
	}
	return val, nil
}

// GetDel atomically retrieves and removes a value. An absent key
// returns "" with no error; at most one caller can ever see the value.
func (s *CredentialStore) GetDel(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis credential getdel: %w", err)
	}
	return val, nil
}

// Del removes a key. Removing an absent key is not an error.
func (s *CredentialStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis credential del: %w", err)
	}
	return nil
}
