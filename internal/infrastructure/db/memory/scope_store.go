// Package memory is a process-local scope store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ScopeStore keeps scopes in a go-cache with sliding expiry. Data is lost on
// restart.
type ScopeStore struct {
	mu    sync.Mutex
	items *cache.Cache
}

func NewScopeStore(ttl time.Duration) *ScopeStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl < cleanup {
		cleanup = ttl
	}
	return &ScopeStore{items: cache.New(ttl, cleanup)}
}

func (s *ScopeStore) Read(_ context.Context, scope string, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(keys))
	v, ok := s.items.Get(scope)
	if !ok {
		return out, nil
	}
	entries := v.(map[string]string)
	for _, k := range keys {
		if val, ok := entries[k]; ok {
			out[k] = val
		}
	}
	return out, nil
}

func (s *ScopeStore) Write(_ context.Context, scope string, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string)
	if v, ok := s.items.Get(scope); ok {
		for k, val := range v.(map[string]string) {
			next[k] = val
		}
	}
	for k, val := range entries {
		next[k] = val
	}
	s.items.SetDefault(scope, next)
	return nil
}

func (s *ScopeStore) Delete(_ context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items.Get(scope)
	if !ok {
		return nil
	}
	next := make(map[string]string)
	for k, val := range v.(map[string]string) {
		next[k] = val
	}
	for _, k := range keys {
		delete(next, k)
	}
	if len(next) == 0 {
		s.items.Delete(scope)
		return nil
	}
	s.items.SetDefault(scope, next)
	return nil
}

func (s *ScopeStore) Name() string { return "memory" }

func (s *ScopeStore) Ping(context.Context) error { return nil }
