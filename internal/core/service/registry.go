package service

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/onegat/console/internal/core/ports"
)

const defaultShellIdleTTL = 30 * time.Minute

// Registry keeps one Shell per browser scope. Shells idle for longer than
// the TTL are dropped and rebuilt from storage on the next request, unless a
// mounted screen still watches them or a logout has not reached storage yet.
// A dropped shell is closed, which ends any watch left on it.
type Registry struct {
	// mu makes get-and-refresh, insert and the eviction decision atomic
	// with respect to each other.
	mu         sync.Mutex
	shells     *cache.Cache
	flight     singleflight.Group
	storage    ports.ScopeStorage
	newBackend ports.BackendFactory
	validator  *TokenValidator
	log        zerolog.Logger
}

func NewRegistry(storage ports.ScopeStorage, newBackend ports.BackendFactory, validator *TokenValidator, idleTTL time.Duration, log zerolog.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultShellIdleTTL
	}
	r := &Registry{
		shells:     cache.New(idleTTL, idleTTL/2),
		storage:    storage,
		newBackend: newBackend,
		validator:  validator,
		log:        log,
	}
	r.shells.OnEvicted(r.evicted)
	return r
}

// Shell returns the shell for scope, creating and bootstrapping it on first
// use. Concurrent first requests for one scope share a single bootstrap.
func (r *Registry) Shell(ctx context.Context, scope string) (*Shell, error) {
	if sh, ok := r.lookup(scope); ok {
		return sh, nil
	}
	// An expired entry may still be pinned; let eviction decide before
	// building a replacement.
	r.shells.DeleteExpired()

	v, err, _ := r.flight.Do(scope, func() (any, error) {
		if sh, ok := r.lookup(scope); ok {
			return sh, nil
		}
		sh := NewShell(scope, r.storage, r.newBackend, r.validator, r.log)
		if err := sh.Bootstrap(ctx); err != nil {
			return nil, err
		}
		return r.adopt(scope, sh), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shell), nil
}

// lookup refreshes the idle deadline on every hit.
func (r *Registry) lookup(scope string) (*Shell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.shells.Get(scope)
	if !ok {
		return nil, false
	}
	r.shells.SetDefault(scope, v)
	return v.(*Shell), true
}

// adopt stores sh unless another shell got there first, and returns the
// one that is kept.
func (r *Registry) adopt(scope string, sh *Shell) *Shell {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.shells.Get(scope); ok {
		sh.Auth().Close()
		return v.(*Shell)
	}
	r.shells.SetDefault(scope, sh)
	return sh
}

func (r *Registry) evicted(scope string, v any) {
	sh := v.(*Shell)
	pinned := sh.Auth().Subscribers() > 0 || sh.Auth().ClearPending()

	r.mu.Lock()
	if _, taken := r.shells.Get(scope); pinned && !taken {
		r.shells.SetDefault(scope, sh)
		r.mu.Unlock()
		r.log.Debug().Str("scope", scope).Msg("shell kept while in use")
		return
	}
	r.mu.Unlock()

	sh.Auth().Close()
	r.log.Debug().Str("scope", scope).Msg("shell evicted")
}

// Len reports the number of live shells.
func (r *Registry) Len() int {
	return r.shells.ItemCount()
}
