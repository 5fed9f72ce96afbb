package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/Proton-105/spark-client/pkg/redis"
)

// RedisStore keeps persisted keys in Redis without expiry.
type RedisStore struct {
	client *redis.MetricsClient
}

func NewRedisStore(client *redis.MetricsClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s from redis: %w", key, err)
	}
	return []byte(value), nil
}

func (r *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("save %s to redis: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s from redis: %w", key, err)
	}
	return nil
}
