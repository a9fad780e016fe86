package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/common"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = common.AppName + ":"

// RedisStore keeps the session in Redis so several client processes on
// one machine (or a shared profile) see the same login.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithPrefix namespaces the session key. The key is prefix + "loggedInUser".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.key = prefix + common.SessionKey }
}

// WithTTL expires the session after ttl. Zero keeps it until Clear.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, key: DefaultRedisPrefix + common.SessionKey}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key returns the Redis key holding the session.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Get(ctx context.Context) (*models.SessionIdentity, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(raw)
}

func (s *RedisStore) Set(ctx context.Context, id models.SessionIdentity) error {
	raw, err := encode(id)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
