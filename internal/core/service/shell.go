package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
)

// Shell is the running console of one browser scope: its session, its
// terms interceptor and the backend client bound to them.
type Shell struct {
	scope     string
	store     *SessionStore
	auth      *AuthContext
	terms     *TermsInterceptor
	backend   ports.Backend
	validator *TokenValidator
	log       zerolog.Logger
}

func NewShell(scope string, storage ports.ScopeStorage, newBackend ports.BackendFactory, validator *TokenValidator, log zerolog.Logger) *Shell {
	log = log.With().Str("scope", scope).Logger()
	store := NewSessionStore(storage, scope, validator, log)
	auth := NewAuthContext(store, validator, log)
	backend := newBackend(ports.TokenSourceFunc(func() string {
		return auth.Snapshot().Token()
	}))
	return &Shell{
		scope:     scope,
		store:     store,
		auth:      auth,
		terms:     NewTermsInterceptor(auth, backend, validator, log),
		backend:   backend,
		validator: validator,
		log:       log,
	}
}

// Bootstrap loads the persisted session. The interceptor sees it before the
// auth context discards an unaccepted one.
func (s *Shell) Bootstrap(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.terms.Evaluate(stored)
	s.auth.Init(ctx, stored)
	return nil
}

func (s *Shell) Scope() string            { return s.scope }
func (s *Shell) Auth() *AuthContext       { return s.auth }
func (s *Shell) Terms() *TermsInterceptor { return s.terms }
func (s *Shell) Backend() ports.Backend   { return s.backend }

// SignInInput is what the login form submits.
type SignInInput struct {
	Username      string
	Password      string
	AcceptedTerms *bool
}

// SignInResult tells the login view where to go next.
type SignInResult struct {
	Profile      *domain.UserProfile
	Landing      string
	TermsPending bool
}

// SignIn authenticates against the backend and installs the session, or
// hands it to the interceptor when the demo terms are still pending.
func (s *Shell) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, fmt.Errorf("sign in: %w", domain.ErrInvalidInput)
	}

	generation := s.auth.Generation()
	token, err := s.backend.Login(ctx, ports.LoginRequest{
		Username:      strings.TrimSpace(in.Username),
		Password:      in.Password,
		AcceptedTerms: in.AcceptedTerms,
	})
	if err != nil {
		return nil, err
	}

	exp, err := s.validator.Expiry(token)
	if err != nil || s.validator.IsExpired(token) {
		return nil, domain.ErrCredentialExpired
	}

	profile, err := s.backend.Me(ports.WithToken(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	if !profile.AcceptedDemoTerms {
		if err := s.terms.Block(domain.Credential{Token: token, ExpiresAt: exp}, profile); err != nil {
			return nil, err
		}
		return &SignInResult{Profile: profile, TermsPending: true}, nil
	}

	s.terms.Reset()
	if err := s.auth.LoginIf(ctx, generation, token, profile); err != nil {
		return nil, err
	}
	return &SignInResult{Profile: profile, Landing: domain.LandingPath(profile.Role)}, nil
}

// SignOut drops the session and any pending terms acceptance.
func (s *Shell) SignOut(ctx context.Context) {
	s.terms.Reset()
	s.auth.Logout(ctx)
}
