package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errNoExpiry = errors.New("token has no exp claim")

// TokenValidator decodes the expiry embedded in a bearer token. The signature
// is never checked here: the backend owns the key and verifies every request.
type TokenValidator struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenValidator returns a validator reading the clock from now. A nil
// clock means time.Now.
func NewTokenValidator(now func() time.Time) *TokenValidator {
	if now == nil {
		now = time.Now
	}
	return &TokenValidator{parser: jwt.NewParser(), now: now}
}

// Expiry returns the exp claim of token.
func (v *TokenValidator) Expiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if exp == nil {
		return time.Time{}, errNoExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether token is past its expiry. Anything that cannot be
// decoded counts as expired.
func (v *TokenValidator) IsExpired(token string) bool {
	exp, err := v.Expiry(token)
	if err != nil {
		return true
	}
	return v.now().After(exp)
}
