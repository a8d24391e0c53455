package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eldtechnologies/memorywall/internal/models"
)

const (
	memoriesCacheKey   = "memories:all"
	memoriesVersionKey = "memories:version"
	memoriesCacheTTL   = 5 * time.Minute
)

// ErrStaleCache is returned by SetCachedMemories when the list was
// invalidated after it was read.
var ErrStaleCache = errors.New("memories changed while the list was read")

// RedisStore handles Redis operations: the list response cache and the
// rate limiter's backing client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client returns the underlying client, or nil on a nil store.
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetCachedMemories returns the cached list. A miss returns (nil, nil).
func (s *RedisStore) GetCachedMemories(ctx context.Context) ([]models.Memory, error) {
	data, err := s.client.Get(ctx, memoriesCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	memories := []models.Memory{}
	if err := json.Unmarshal(data, &memories); err != nil {
		// Drop what we cannot read
		s.client.Del(ctx, memoriesCacheKey)
		return nil, nil
	}
	return memories, nil
}

// MemoriesVersion returns the invalidation counter. Read it before querying
// the database and hand it to SetCachedMemories.
func (s *RedisStore) MemoriesVersion(ctx context.Context) (int64, error) {
	v, err := s.client.Get(ctx, memoriesVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetCachedMemories caches the list if no invalidation happened since
// version was read. Otherwise it returns ErrStaleCache and writes nothing.
func (s *RedisStore) SetCachedMemories(ctx context.Context, version int64, memories []models.Memory) error {
	data, err := json.Marshal(memories)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, memoriesVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleCache
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, memoriesCacheKey, data, memoriesCacheTTL)
			return nil
		})
		return err
	}, memoriesVersionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleCache
	}
	return err
}

// InvalidateMemories bumps the version and drops the cached list after a
// write.
func (s *RedisStore) InvalidateMemories(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, memoriesVersionKey)
		pipe.Del(ctx, memoriesCacheKey)
		return nil
	})
	return err
}
