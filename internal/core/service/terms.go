package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
)

// TermsState is the demo-terms interceptor state.
type TermsState int

const (
	TermsUnchecked TermsState = iota
	TermsBlocking
	TermsClear
)

func (s TermsState) String() string {
	switch s {
	case TermsUnchecked:
		return "unchecked"
	case TermsBlocking:
		return "blocking"
	case TermsClear:
		return "clear"
	default:
		return "unknown"
	}
}

// TermsInterceptor holds back a signed-in user until the demo terms are
// accepted. While blocking, the pending credential lives only here.
type TermsInterceptor struct {
	mu        sync.Mutex
	state     TermsState
	pending   *domain.Credential
	profile   *domain.UserProfile
	epoch     uint64
	auth      *AuthContext
	backend   ports.Backend
	validator *TokenValidator
	log       zerolog.Logger
	flight    singleflight.Group
}

func NewTermsInterceptor(auth *AuthContext, backend ports.Backend, validator *TokenValidator, log zerolog.Logger) *TermsInterceptor {
	return &TermsInterceptor{auth: auth, backend: backend, validator: validator, log: log}
}

// Evaluate inspects the persisted session at startup.
func (t *TermsInterceptor) Evaluate(stored domain.SessionState) TermsState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TermsUnchecked {
		return t.state
	}
	if stored.Credential == nil || stored.Profile == nil || stored.Profile.AcceptedDemoTerms {
		return t.state
	}
	if t.validator.IsExpired(stored.Credential.Token) {
		return t.state
	}
	t.blockLocked(*stored.Credential, stored.Profile)
	return t.state
}

// Block enters the blocking state after a login whose profile has not
// accepted the demo terms.
func (t *TermsInterceptor) Block(cred domain.Credential, profile *domain.UserProfile) error {
	if profile == nil || profile.AcceptedDemoTerms {
		return fmt.Errorf("block: %w", domain.ErrInvalidInput)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blockLocked(cred, profile)
	return nil
}

func (t *TermsInterceptor) blockLocked(cred domain.Credential, profile *domain.UserProfile) {
	t.state = TermsBlocking
	t.pending = &cred
	t.profile = profile.Clone()
	t.epoch++
	t.log.Info().Str("username", profile.Username).Msg("demo terms pending")
}

// Accept runs the acceptance round trip: accept on the backend, re-fetch the
// profile, install the session. Concurrent calls share one round trip. On
// failure the interceptor stays blocking.
func (t *TermsInterceptor) Accept(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case TermsClear:
		t.mu.Unlock()
		return nil
	case TermsUnchecked:
		t.mu.Unlock()
		return domain.ErrNotBlocking
	}
	cred := *t.pending
	epoch := t.epoch
	t.mu.Unlock()

	if t.validator.IsExpired(cred.Token) {
		t.Reset()
		return domain.ErrCredentialExpired
	}

	_, err, shared := t.flight.Do("accept", func() (any, error) {
		return nil, t.accept(ctx, cred, epoch)
	})
	if shared {
		t.log.Debug().Msg("accept coalesced with in-flight request")
	}
	return err
}

func (t *TermsInterceptor) accept(ctx context.Context, cred domain.Credential, epoch uint64) error {
	generation := t.auth.Generation()
	ctx = ports.WithToken(ctx, cred.Token)

	if err := t.backend.AcceptDemoTerms(ctx); err != nil {
		return fmt.Errorf("accept demo terms: %w", err)
	}
	profile, err := t.backend.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	if !profile.AcceptedDemoTerms {
		return domain.ErrDemoTermsPending
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.epoch != epoch || t.state != TermsBlocking {
		return domain.ErrSessionChanged
	}
	if err := t.auth.LoginIf(ctx, generation, cred.Token, profile); err != nil {
		return err
	}
	t.state = TermsClear
	t.pending = nil
	t.profile = nil
	t.log.Info().Str("username", profile.Username).Msg("demo terms accepted")
	return nil
}

// Reset returns to Unchecked and invalidates any acceptance in flight.
func (t *TermsInterceptor) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TermsUnchecked
	t.pending = nil
	t.profile = nil
	t.epoch++
}

func (t *TermsInterceptor) State() TermsState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// PendingProfile returns the profile waiting for acceptance, if any.
func (t *TermsInterceptor) PendingProfile() *domain.UserProfile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profile.Clone()
}
