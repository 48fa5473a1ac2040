package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onegat/console/internal/core/domain"
)

func TestRegistry_OneShellPerScope(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newMemStorage(), factoryFor(&stubBackend{}), NewTokenValidator(fixedClock()), time.Minute, zerolog.Nop())

	var wg sync.WaitGroup
	shells := make([]*Shell, 8)
	for i := range shells {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sh, err := r.Shell(ctx, "a")
			assert.NoError(t, err)
			shells[i] = sh
		}(i)
	}
	wg.Wait()

	for _, sh := range shells {
		assert.Same(t, shells[0], sh)
	}

	other, err := r.Shell(ctx, "b")
	require.NoError(t, err)
	assert.NotSame(t, shells[0], other)
	assert.Equal(t, "b", other.Scope())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_BootstrapFailure(t *testing.T) {
	storage := newMemStorage()
	storage.readErr = errors.New("redis down")
	r := NewRegistry(storage, factoryFor(&stubBackend{}), NewTokenValidator(fixedClock()), time.Minute, zerolog.Nop())

	_, err := r.Shell(context.Background(), "a")
	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, 0, r.Len())

	storage.mu.Lock()
	storage.readErr = nil
	storage.mu.Unlock()
	_, err = r.Shell(context.Background(), "a")
	assert.NoError(t, err)
}

func newShortRegistry(storage *memStorage, ttl time.Duration) *Registry {
	return NewRegistry(storage, factoryFor(&stubBackend{}), NewTokenValidator(fixedClock()), ttl, zerolog.Nop())
}

func TestRegistry_KeepsWatchedShellPastIdleTTL(t *testing.T) {
	ctx := context.Background()
	r := newShortRegistry(newMemStorage(), 40*time.Millisecond)

	sh, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	require.NoError(t, sh.Auth().Login(ctx, validToken(t), profile(domain.RoleAdmin, true)))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	decisions := NewGate("", "").Watch(watchCtx, sh.Auth(), domain.NewRouteAuthSpec("/colonias", domain.RoleAdmin))

	time.Sleep(150 * time.Millisecond)

	again, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	require.Same(t, sh, again)

	again.SignOut(ctx)

	select {
	case d, ok := <-decisions:
		require.True(t, ok)
		assert.Equal(t, RedirectLogin, d.Outcome)
	case <-time.After(time.Second):
		t.Fatal("logout did not reach the mounted screen")
	}
}

func TestRegistry_DropsIdleShell(t *testing.T) {
	ctx := context.Background()
	r := newShortRegistry(newMemStorage(), 20*time.Millisecond)

	sh, err := r.Shell(ctx, "s")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	again, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	assert.NotSame(t, sh, again)

	select {
	case <-sh.Auth().Done():
	default:
		t.Fatal("dropped shell was not closed")
	}
}

func TestRegistry_ReplacedShellEndsItsWatches(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	r := newShortRegistry(storage, time.Minute)

	old, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	require.NoError(t, old.Auth().Login(ctx, validToken(t), profile(domain.RoleAdmin, true)))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	decisions := NewGate("", "").Watch(watchCtx, old.Auth(), domain.NewRouteAuthSpec("/colonias", domain.RoleAdmin))

	// Another request already rebuilt the scope when the old entry's
	// eviction is processed.
	r.shells.SetDefault("s", newTestShell(storage, &stubBackend{}))
	r.evicted("s", old)

	select {
	case _, ok := <-decisions:
		assert.False(t, ok, "closed shell must end the watch without a decision")
	case <-time.After(time.Second):
		t.Fatal("watch on replaced shell stayed open")
	}
}

func TestRegistry_KeepsShellUntilLogoutReachesStorage(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	r := newShortRegistry(storage, 20*time.Millisecond)

	sh, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	require.NoError(t, sh.Auth().Login(ctx, validToken(t), profile(domain.RoleAdmin, true)))

	storage.mu.Lock()
	storage.delErr = errors.New("redis down")
	storage.mu.Unlock()
	sh.SignOut(ctx)
	_, persisted := storage.get("s", keyToken)
	require.True(t, persisted)

	time.Sleep(60 * time.Millisecond)
	again, err := r.Shell(ctx, "s")
	require.NoError(t, err)
	require.Same(t, sh, again)
	assert.False(t, again.Auth().Current(ctx).Authenticated)

	storage.mu.Lock()
	storage.delErr = nil
	storage.mu.Unlock()
	again.Auth().Current(ctx)

	_, persisted = storage.get("s", keyToken)
	assert.False(t, persisted)
	assert.False(t, again.Auth().ClearPending())
}
