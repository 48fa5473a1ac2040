package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time { return func() time.Time { return testNow } }

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func validToken(t *testing.T) string   { return makeToken(t, testNow.Add(time.Hour)) }
func expiredToken(t *testing.T) string { return makeToken(t, testNow.Add(-time.Minute)) }

func profile(role domain.Role, accepted bool) *domain.UserProfile {
	return &domain.UserProfile{ID: 7, Username: "ana", Role: role, AcceptedTerms: true, AcceptedDemoTerms: accepted}
}

// memStorage is a map-backed ports.ScopeStorage that records calls.
type memStorage struct {
	mu       sync.Mutex
	data     map[string]map[string]string
	readErr  error
	writeErr error
	delErr   error
	deletes  [][]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]map[string]string)}
}

func (m *memStorage) Read(_ context.Context, scope string, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.data[scope][k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStorage) Write(_ context.Context, scope string, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.data[scope] == nil {
		m.data[scope] = make(map[string]string)
	}
	for k, v := range entries {
		m.data[scope][k] = v
	}
	return nil
}

func (m *memStorage) Delete(_ context.Context, scope string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, keys)
	if m.delErr != nil {
		return m.delErr
	}
	for _, k := range keys {
		delete(m.data[scope], k)
	}
	return nil
}

func (m *memStorage) get(scope, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[scope][key]
	return v, ok
}

func (m *memStorage) put(scope, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[scope] == nil {
		m.data[scope] = make(map[string]string)
	}
	m.data[scope][key] = value
}

// stubBackend implements ports.Backend with overridable funcs.
type stubBackend struct {
	tokens         ports.TokenSource
	loginFn        func(ctx context.Context, req ports.LoginRequest) (string, error)
	meFn           func(ctx context.Context) (*domain.UserProfile, error)
	acceptFn       func(ctx context.Context) error
	changeFn       func(ctx context.Context, current, next string) error
	requestResetFn func(ctx context.Context, email string) error
	resetFn        func(ctx context.Context, token, next string) error
}

func (b *stubBackend) Login(ctx context.Context, req ports.LoginRequest) (string, error) {
	return b.loginFn(ctx, req)
}

func (b *stubBackend) Me(ctx context.Context) (*domain.UserProfile, error) {
	return b.meFn(ctx)
}

func (b *stubBackend) AcceptDemoTerms(ctx context.Context) error {
	return b.acceptFn(ctx)
}

func (b *stubBackend) ChangePassword(ctx context.Context, current, next string) error {
	return b.changeFn(ctx, current, next)
}

func (b *stubBackend) RequestPasswordReset(ctx context.Context, email string) error {
	return b.requestResetFn(ctx, email)
}

func (b *stubBackend) ResetPassword(ctx context.Context, token, next string) error {
	return b.resetFn(ctx, token, next)
}

// bearer resolves the token the transport would send.
func (b *stubBackend) bearer(ctx context.Context) string {
	if tok, ok := ports.TokenFromContext(ctx); ok {
		return tok
	}
	if b.tokens == nil {
		return ""
	}
	return b.tokens.Token()
}

func factoryFor(b *stubBackend) ports.BackendFactory {
	return func(ts ports.TokenSource) ports.Backend {
		b.tokens = ts
		return b
	}
}

func newTestShell(storage ports.ScopeStorage, b *stubBackend) *Shell {
	return NewShell("scope-1", storage, factoryFor(b), NewTokenValidator(fixedClock()), zerolog.Nop())
}

func newTestAuth(storage ports.ScopeStorage, now func() time.Time) (*AuthContext, *SessionStore) {
	v := NewTokenValidator(now)
	store := NewSessionStore(storage, "scope-1", v, zerolog.Nop())
	return NewAuthContext(store, v, zerolog.Nop()), store
}
