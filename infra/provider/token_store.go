package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore caches provider access tokens between calls and across instances.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

type RedisTokenStore struct {
	client redis.UniversalClient
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *RedisTokenStore) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	return s.client.Set(ctx, key, token, ttl).Err()
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[key]
	if !ok || !s.now().Before(t.expiresAt) {
		return "", false, nil
	}
	return t.value, true, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, key, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = memoryToken{value: token, expiresAt: s.now().Add(ttl)}
	return nil
}
