package ports

import (
	"context"

	"github.com/onegat/console/internal/core/domain"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	AcceptedTerms *bool  `json:"accepted_terms,omitempty"`
}

// Backend is the slice of the REST API the console relies on.
type Backend interface {
	Login(ctx context.Context, req LoginRequest) (string, error)
	Me(ctx context.Context) (*domain.UserProfile, error)
	AcceptDemoTerms(ctx context.Context) error
	ChangePassword(ctx context.Context, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, next string) error
}

// TokenSource yields the bearer token for outgoing requests, or "".
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// BackendFactory builds a backend client bound to a token source.
type BackendFactory func(TokenSource) Backend

type tokenKey struct{}

// WithToken overrides the bearer token for requests issued with ctx. Used
// right after login, before the credential is installed.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the override set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}
