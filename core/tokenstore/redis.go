package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultRedisKey is the hash key holding one principal's session state.
const defaultRedisKey = "authcore:session"

// RedisStore keeps session state in a single Redis hash, so ClearAll maps to
// one DEL and the session stays a unit. Intended for multi-process clients
// (worker fleets, CLI agents) sharing one logical login.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisKey overrides the hash key, e.g. to namespace per principal:
// "authcore:session:user-42".
func WithRedisKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithRedisTTL expires the whole session hash after the given duration of
// inactivity. Zero disables expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed store using the given client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.Join(ErrUnavailable, errors.New("redis client is nil"))
	}

	s := &RedisStore{
		client: client,
		key:    defaultRedisKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the value for the key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", errors.Join(ErrUnavailable, err)
	}
	return value, nil
}

// Set stores the value as a hash field and refreshes the session TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return errors.Join(ErrUnavailable, err)
		}
	}
	return nil
}

// Remove deletes the hash field. Absent fields are ignored.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key, key).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// ClearAll deletes the session hash in a single operation.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
