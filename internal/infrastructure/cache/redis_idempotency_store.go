package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "pos:idempotency:"

var (
	pendingValue = []byte("p")
	donePrefix   = []byte("d:")
)

// releaseScript deletes a key only while it still holds the in-flight marker
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisIdempotencyStore implements IdempotencyStore using Redis, so every
// instance behind the load balancer sees the same keys
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store on an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire claims key with SET NX
func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingValue, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}
	return ok, nil
}

// Complete replaces the in-flight marker with the response
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	value := make([]byte, 0, len(donePrefix)+len(response))
	value = append(value, donePrefix...)
	value = append(value, response...)
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Lookup returns the response of a completed key
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if !bytes.HasPrefix(value, donePrefix) {
		return nil, false, nil
	}
	return value[len(donePrefix):], true, nil
}

// Release drops the key if it is still in flight
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, pendingValue).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
