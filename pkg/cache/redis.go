package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces artifact keys within the shared instance.
	Prefix string
}

// Redis stores blobs in a Redis instance. Useful when several replicas
// share one prebuilt index.
type Redis struct {
	config RedisConfig
	client *redis.Client
}

func NewRedis(config RedisConfig) (*Redis, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if config.Prefix == "" {
		config.Prefix = "tier0:index"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &Redis{config: config, client: client}, nil
}

func (r *Redis) key(key string) string {
	return r.config.Prefix + ":" + key
}

func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNoCache, key)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNoCache, key, err)
	}
	return data, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
