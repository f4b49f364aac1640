package assetcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "assetcache"

// RedisStore keeps named caches in Redis so multiple edge instances
// share one asset cache. Each named cache is a hash; a registry set
// tracks cache names for activation-time purging.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed store on an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) registryKey() string {
	return s.prefix + ":stores"
}

func (s *RedisStore) cacheKey(name string) string {
	return s.prefix + ":store:" + name
}

func (s *RedisStore) Open(ctx context.Context, name string) (Cache, error) {
	if err := s.client.SAdd(ctx, s.registryKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("assetcache: register cache %q: %w", name, err)
	}
	return &redisCache{client: s.client, key: s.cacheKey(name)}, nil
}

func (s *RedisStore) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.registryKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("assetcache: list caches: %w", err)
	}
	return names, nil
}

func (s *RedisStore) Drop(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.cacheKey(name))
	pipe.SRem(ctx, s.registryKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("assetcache: drop cache %q: %w", name, err)
	}
	return nil
}

type redisCache struct {
	client *redis.Client
	key    string
}

func (c *redisCache) Match(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.client.HGet(ctx, c.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("assetcache: match %q: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt document is treated as a miss; the next Put heals it.
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *redisCache) Put(ctx context.Context, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("assetcache: encode %q: %w", key, err)
	}
	if err := c.client.HSet(ctx, c.key, key, raw).Err(); err != nil {
		return fmt.Errorf("assetcache: put %q: %w", key, err)
	}
	return nil
}
