package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "onegat:scope:"

// ScopeStore keeps each browser scope in one Redis hash. The hash expires
// SessionTTL after its last write.
type ScopeStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewScopeStore(client redis.UniversalClient, ttl time.Duration) *ScopeStore {
	return &ScopeStore{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

func (s *ScopeStore) key(scope string) string { return s.prefix + scope }

func (s *ScopeStore) Read(ctx context.Context, scope string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.key(scope), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read scope: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

func (s *ScopeStore) Write(ctx context.Context, scope string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	key := s.key(scope)
	fields := make(map[string]any, len(entries))
	for k, v := range entries {
		fields[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fields)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write scope: %w", err)
	}
	return nil
}

func (s *ScopeStore) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key(scope), keys...).Err(); err != nil {
		return fmt.Errorf("redis delete scope: %w", err)
	}
	return nil
}

func (s *ScopeStore) Name() string { return "redis" }

func (s *ScopeStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
