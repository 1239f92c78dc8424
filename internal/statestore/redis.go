package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mverab/flasharb/internal/apperror"
)

// RedisConfig holds connection settings for the redis-backed store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// Redis is a Store backed by a redis server. Used when the engine must
// share state (risk parameters, emergency stop, metrics) across processes.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a redis-backed store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("redis ping %s", cfg.Addr),
			apperror.WithCause(err))
	}

	return &Redis{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("redis get %q", key),
			apperror.WithCause(err))
	}
	return raw, true, nil
}

// Set implements Store. Values persist until removed.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("redis set %q", key),
			apperror.WithCause(err))
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("redis del %q", key),
			apperror.WithCause(err))
	}
	return nil
}

// Ping implements Store.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
