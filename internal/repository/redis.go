package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps Storage entries in redis, optionally expiring them after ttl
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

func NewRedisStorage(addr, prefix string, ttl time.Duration) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &RedisStorage{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisStorage) key(k string) string { return r.prefix + k }

func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Put stores value; ttl 0 keeps the entry forever.
func (r *RedisStorage) Put(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *RedisStorage) Close() error { return r.rdb.Close() }
