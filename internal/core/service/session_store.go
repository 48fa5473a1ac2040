package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// SessionStore persists the credential and profile of one browser scope.
type SessionStore struct {
	storage   ports.ScopeStorage
	scope     string
	validator *TokenValidator
	log       zerolog.Logger
}

func NewSessionStore(storage ports.ScopeStorage, scope string, validator *TokenValidator, log zerolog.Logger) *SessionStore {
	return &SessionStore{storage: storage, scope: scope, validator: validator, log: log}
}

// Load returns what is persisted for the scope. Entries that fail to decode
// are reported as an empty state; only storage failures are returned.
func (s *SessionStore) Load(ctx context.Context) (domain.SessionState, error) {
	values, err := s.storage.Read(ctx, s.scope, keyToken, keyUser)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load session: %w", err)
	}

	state, err := s.decode(values)
	if err != nil {
		var de *domain.DecodeError
		if errors.As(err, &de) {
			s.log.Warn().Err(err).Str("scope", s.scope).Msg("discarding unreadable session")
			return domain.SessionState{}, nil
		}
		return domain.SessionState{}, err
	}
	return state, nil
}

func (s *SessionStore) decode(values map[string]string) (domain.SessionState, error) {
	var state domain.SessionState

	if tok, ok := values[keyToken]; ok && tok != "" {
		cred := &domain.Credential{Token: tok}
		// An undecodable token is still returned; the validator rejects it later.
		if exp, err := s.validator.Expiry(tok); err == nil {
			cred.ExpiresAt = exp
		}
		state.Credential = cred
	}

	if raw, ok := values[keyUser]; ok && raw != "" {
		var profile domain.UserProfile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return domain.SessionState{}, &domain.DecodeError{Key: keyUser, Err: err}
		}
		state.Profile = &profile
	}

	return state, nil
}

// Save writes both entries in one storage call.
func (s *SessionStore) Save(ctx context.Context, cred domain.Credential, profile *domain.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("save session: %w", domain.ErrInvalidInput)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.storage.Write(ctx, s.scope, map[string]string{
		keyToken: cred.Token,
		keyUser:  string(raw),
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes both entries together.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.scope, keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
