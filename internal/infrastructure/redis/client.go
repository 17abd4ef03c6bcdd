package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RetryConfig bounds the connection attempts made by NewClient.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig is used by the server on startup.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// NewClient creates a Redis client and waits for the server to answer PING,
// retrying with exponential backoff.
func NewClient(ctx context.Context, redisURL string, retry RetryConfig, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retry.InitialInterval
	b.MaxInterval = retry.MaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("addr", opts.Addr).
				Msg("redis not ready")
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, retry.MaxRetries), ctx))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis after %d attempts: %w", attempt, err)
	}

	logger.Info().Str("addr", opts.Addr).Msg("connected to redis")
	return client, nil
}
