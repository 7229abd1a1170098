package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AnswerCache stores generated coaching answers.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisAnswerCache struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisAnswerCache parses a redis:// URL and pings the server.
func NewRedisAnswerCache(ctx context.Context, redisURL string) (*RedisAnswerCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisAnswerCacheWithClient(rdb), nil
}

func NewRedisAnswerCacheWithClient(rdb *goredis.Client) *RedisAnswerCache {
	return &RedisAnswerCache{rdb: rdb, prefix: "study-tracker:coach:"}
}

func (c *RedisAnswerCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisAnswerCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisAnswerCache) Close() error {
	return c.rdb.Close()
}
