package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheService is a byte-oriented cache with per-entry TTLs. The dashboard
// uses it for short-lived read-through caches on listing endpoints. A
// non-positive ttl on Set falls back to the configured default.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCacheService implements CacheService on a redis client
type RedisCacheService struct {
	rc         *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCacheService creates a redis-backed cache. The prefix isolates this
// deployment's keys from anything else on the same redis.
func NewRedisCacheService(rc *redis.Client, prefix string, defaultTTL time.Duration) CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 1 * time.Minute
	}
	return &RedisCacheService{rc: rc, prefix: prefix, defaultTTL: defaultTTL}
}

func (s *RedisCacheService) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := s.rc.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return bs, nil
}

func (s *RedisCacheService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.rc.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *RedisCacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	return s.rc.Del(ctx, prefixed...).Err()
}
