package redis

import (
	"context"
	"fmt"
	"time"

	"merchant-payment-backend/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// pingTimeout bounds the startup connectivity probe so a dead Redis fails
// the boot quickly instead of hanging it.
const pingTimeout = 5 * time.Second

// NewClient connects to the Redis instance that backs session credentials
// (refresh-token families, reset tickets) and rate-limit counters, and
// verifies connectivity before handing the client out.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("redis credential store connected")

	return client, nil
}
