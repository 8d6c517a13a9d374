package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kontorlabs/kontor/auth"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

// RedisStore keeps the credential pair in a single Redis hash. Both tokens
// live under one key and are written with one HSET, so the pair is replaced
// atomically as far as any reader is concerned.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key prefix for the credential hash.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.key = p + ":credentials"
		}
	}
}

// NewRedisStore is the constructor for the Redis-backed credential store.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb: rdb,
		key: "kontor:credentials",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credentials loads the stored pair, or returns nil when the hash is absent.
func (s *RedisStore) Credentials(ctx context.Context) (*auth.Credentials, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &auth.Credentials{
		AccessToken:  fields[fieldAccessToken],
		RefreshToken: fields[fieldRefreshToken],
	}, nil
}

// Save replaces both tokens with a single HSET.
func (s *RedisStore) Save(ctx context.Context, creds auth.Credentials) error {
	err := s.rdb.HSet(ctx, s.key,
		fieldAccessToken, creds.AccessToken,
		fieldRefreshToken, creds.RefreshToken,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save credentials to redis: %w", err)
	}
	return nil
}

// Clear deletes the credential hash. Deleting an absent key is a no-op.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials from redis: %w", err)
	}
	return nil
}
