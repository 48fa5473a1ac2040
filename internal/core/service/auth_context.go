package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
)

// AuthContext holds the session of one running shell. All mutations are
// serialized; subscribers are notified after each one, outside the lock.
type AuthContext struct {
	mu           sync.Mutex
	store        *SessionStore
	validator    *TokenValidator
	log          zerolog.Logger
	state        domain.SessionState
	generation   uint64
	nextSub      int
	subs         map[int]*subscriber
	// clearPending is set when the store could not be wiped. Every later
	// read retries until it succeeds.
	clearPending bool
	closed       bool
	done         chan struct{}
}

// subscriber receives snapshots in generation order. A snapshot older than
// the last one delivered is dropped.
type subscriber struct {
	mu   sync.Mutex
	last uint64
	fn   func(domain.SessionState)
}

func (s *subscriber) deliver(generation uint64, state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation <= s.last {
		return
	}
	s.last = generation
	s.fn(state)
}

func NewAuthContext(store *SessionStore, validator *TokenValidator, log zerolog.Logger) *AuthContext {
	return &AuthContext{
		store:     store,
		validator: validator,
		log:       log,
		subs:      make(map[int]*subscriber),
		done:      make(chan struct{}),
	}
}

// Init seeds the context from what was persisted. Anything short of a live
// credential with an accepted profile leaves it unauthenticated and wipes
// the store.
func (a *AuthContext) Init(ctx context.Context, stored domain.SessionState) {
	a.mu.Lock()
	if a.usable(stored) {
		a.state = domain.SessionState{
			Credential:    &domain.Credential{Token: stored.Credential.Token, ExpiresAt: stored.Credential.ExpiresAt},
			Profile:       stored.Profile.Clone(),
			Authenticated: true,
		}
	} else {
		a.state = domain.SessionState{}
		a.clearPending = true
		a.retryClearLocked(ctx)
	}
	a.generation++
	a.notifyLocked()
}

func (a *AuthContext) usable(s domain.SessionState) bool {
	return s.Credential != nil &&
		s.Profile != nil &&
		s.Profile.AcceptedDemoTerms &&
		!a.validator.IsExpired(s.Credential.Token)
}

// Login persists and installs a confirmed session.
func (a *AuthContext) Login(ctx context.Context, token string, profile *domain.UserProfile) error {
	a.mu.Lock()
	return a.installLocked(ctx, token, profile)
}

// LoginIf is Login guarded by the generation observed when the caller
// started its backend round trip. If the session moved on since then the
// result is dropped with domain.ErrSessionChanged.
func (a *AuthContext) LoginIf(ctx context.Context, generation uint64, token string, profile *domain.UserProfile) error {
	a.mu.Lock()
	if a.generation != generation {
		a.mu.Unlock()
		return domain.ErrSessionChanged
	}
	return a.installLocked(ctx, token, profile)
}

// installLocked must be entered with mu held and releases it.
func (a *AuthContext) installLocked(ctx context.Context, token string, profile *domain.UserProfile) error {
	if profile == nil || token == "" {
		a.mu.Unlock()
		return fmt.Errorf("login: %w", domain.ErrInvalidInput)
	}
	if !profile.AcceptedDemoTerms {
		a.mu.Unlock()
		return domain.ErrDemoTermsPending
	}
	exp, err := a.validator.Expiry(token)
	if err != nil || a.validator.IsExpired(token) {
		a.mu.Unlock()
		return domain.ErrCredentialExpired
	}

	cred := domain.Credential{Token: token, ExpiresAt: exp}
	if err := a.store.Save(ctx, cred, profile); err != nil {
		a.mu.Unlock()
		return err
	}
	a.clearPending = false

	a.state = domain.SessionState{Credential: &cred, Profile: profile.Clone(), Authenticated: true}
	a.generation++
	a.log.Info().Str("username", profile.Username).Str("role", string(profile.Role)).Msg("session installed")
	a.notifyLocked()
	return nil
}

// Logout drops the session. It never fails: storage errors are logged.
func (a *AuthContext) Logout(ctx context.Context) {
	a.mu.Lock()
	a.teardownLocked(ctx)
}

func (a *AuthContext) teardownLocked(ctx context.Context) {
	a.clearPending = true
	a.retryClearLocked(ctx)
	a.state = domain.SessionState{}
	a.generation++
	a.notifyLocked()
}

// retryClearLocked wipes the store if an earlier attempt left it behind.
func (a *AuthContext) retryClearLocked(ctx context.Context) {
	if !a.clearPending {
		return
	}
	if err := a.store.Clear(ctx); err != nil {
		a.log.Error().Err(err).Msg("clearing persisted session")
		return
	}
	a.clearPending = false
}

// ClearPending reports whether a dropped session may still be persisted.
func (a *AuthContext) ClearPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clearPending
}

// Current returns the session after re-checking the credential expiry. An
// expired session is torn down before returning.
func (a *AuthContext) Current(ctx context.Context) domain.SessionState {
	a.mu.Lock()
	a.retryClearLocked(ctx)
	if a.state.Authenticated && a.validator.IsExpired(a.state.Token()) {
		a.log.Info().Msg("credential expired, dropping session")
		a.teardownLocked(ctx)
		return domain.SessionState{}
	}
	s := snapshot(a.state)
	a.mu.Unlock()
	return s
}

// Snapshot returns a copy of the state without touching storage.
func (a *AuthContext) Snapshot() domain.SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return snapshot(a.state)
}

// Generation increases on every state change.
func (a *AuthContext) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Subscribe registers fn to run after every state change. Deliveries to one
// subscriber never overlap and never go back in time; fn must not change the
// session itself. The returned function unregisters it.
func (a *AuthContext) Subscribe(fn func(domain.SessionState)) (cancel func()) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return func() {}
	}
	id := a.nextSub
	a.nextSub++
	a.subs[id] = &subscriber{last: a.generation, fn: fn}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

// Subscribers reports how many watchers are attached.
func (a *AuthContext) Subscribers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

// Close detaches every subscriber and closes Done. Used when the shell is
// dropped from the registry so nothing keeps watching a stale session.
func (a *AuthContext) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.subs = make(map[int]*subscriber)
	close(a.done)
}

// Done is closed by Close.
func (a *AuthContext) Done() <-chan struct{} {
	return a.done
}

// notifyLocked must be entered with mu held and releases it.
func (a *AuthContext) notifyLocked() {
	s := snapshot(a.state)
	gen := a.generation
	subs := make([]*subscriber, 0, len(a.subs))
	for _, sub := range a.subs {
		subs = append(subs, sub)
	}
	a.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(gen, s)
	}
}

func snapshot(s domain.SessionState) domain.SessionState {
	out := domain.SessionState{Authenticated: s.Authenticated, Profile: s.Profile.Clone()}
	if s.Credential != nil {
		c := *s.Credential
		out.Credential = &c
	}
	return out
}
