package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultStore is a shared second-level store for memoized results, so
// several server instances can reuse each other's computations.
type ResultStore interface {
	Get(ctx context.Context, namespace string, key Key, dst any) (storedAt time.Time, found bool, err error)
	Set(ctx context.Context, namespace string, key Key, value any, storedAt time.Time, ttl time.Duration) error
	Clear(ctx context.Context, namespace string) error
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

const defaultResultKeyPrefix = "analytics:result:"

// resultEnvelope carries the original store time so a value read back from
// Redis expires on the same schedule as the in-process copy.
type resultEnvelope struct {
	StoredAt int64           `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// RedisResultStore implements ResultStore on Redis with JSON payloads.
type RedisResultStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisResultStore connects to Redis and verifies the connection.
func NewRedisResultStore(cfg RedisConfig) (*RedisResultStore, error) {
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

	return NewRedisResultStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisResultStoreWithClient wraps an existing client.
func NewRedisResultStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisResultStore {
	if keyPrefix == "" {
		keyPrefix = defaultResultKeyPrefix
	}
	return &RedisResultStore{client: client, keyPrefix: keyPrefix}
}

// redisKey hashes the parameters so keys stay short and printable.
func (s *RedisResultStore) redisKey(namespace string, key Key) string {
	sum := sha256.Sum256([]byte(key.Params))
	return s.keyPrefix + namespace + ":" + key.Operation + ":" + hex.EncodeToString(sum[:16])
}

// Get implements ResultStore
func (s *RedisResultStore) Get(ctx context.Context, namespace string, key Key, dst any) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.redisKey(namespace, key)).Bytes()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cached result: %w", err)
	}

	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return time.UnixMilli(env.StoredAt), true, nil
}

// Set implements ResultStore
func (s *RedisResultStore) Set(ctx context.Context, namespace string, key Key, value any, storedAt time.Time, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data, err := json.Marshal(resultEnvelope{StoredAt: storedAt.UnixMilli(), Value: payload})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(namespace, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// Clear deletes every key in the namespace.
func (s *RedisResultStore) Clear(ctx context.Context, namespace string) error {
	pattern := s.keyPrefix + namespace + ":*"
	iter := s.client.Scan(ctx, 0, pattern, 200).Iterator()

	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear results: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan results: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisResultStore) Close() error {
	return s.client.Close()
}
