package redis_test

import (
	"context"
	"testing"
	"time"

	"merchant-payment-backend/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*redis.CredentialStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis.NewCredentialStore(client), mr
}

func TestCredentialStore_SetGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "refresh:fam-1", "jti-1", time.Hour))

	val, err := store.Get(ctx, "refresh:fam-1")
	require.NoError(t, err)
	assert.Equal(t, "jti-1", val)
}

func TestCredentialStore_Get_Absent(t *testing.T) {
	store, _ := newTestStore(t)

	val, err := store.Get(context.Background(), "refresh:missing")
	require.NoError(t, err, "an absent key is not an error")
	assert.Empty(t, val)
}

func TestCredentialStore_GetDel_SingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "reset:abc", "merchant-1", time.Hour))

	val, err := store.GetDel(ctx, "reset:abc")
	require.NoError(t, err)
	assert.Equal(t, "merchant-1", val)

	// Consumed: the second read sees nothing.
	val, err = store.GetDel(ctx, "reset:abc")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "reset:abc", "merchant-1", time.Hour))

	mr.FastForward(time.Hour + time.Second)

	val, err := store.GetDel(ctx, "reset:abc")
	require.NoError(t, err)
	assert.Empty(t, val, "an expired ticket must be gone")
}

func TestCredentialStore_Del(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "refresh:fam-1", "jti-1", time.Hour))
	require.NoError(t, store.Del(ctx, "refresh:fam-1"))

	val, err := store.Get(ctx, "refresh:fam-1")
	require.NoError(t, err)
	assert.Empty(t, val)

	// Deleting an absent key is fine.
	require.NoError(t, store.Del(ctx, "refresh:fam-1"))
}
