package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase connects using a redis URL, e.g. redis://localhost:6379/0.
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(options)}, nil
}

// CreateDatabase only verifies connectivity, redis needs no schema.
func (r *RedisDatabase) CreateDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *RedisDatabase) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}
