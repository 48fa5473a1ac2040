package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/onegat/console/internal/core/domain"
)

const minPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password": {},
	"12345678": {},
	"admin":    {},
	"qwerty":   {},
}

// CheckPasswordStrength returns the first rule pw breaks, wrapped in
// domain.ErrWeakPassword, or nil.
func CheckPasswordStrength(pw string) error {
	var upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r < 'a' || r > 'z':
			special = true
		}
	}

	switch {
	case len([]rune(pw)) < minPasswordLength:
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakPassword, minPasswordLength)
	case !upper:
		return fmt.Errorf("%w: must contain an upper case letter", domain.ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: must contain a digit", domain.ErrWeakPassword)
	case !special:
		return fmt.Errorf("%w: must contain a special character", domain.ErrWeakPassword)
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return fmt.Errorf("%w: too common", domain.ErrWeakPassword)
	}
	return nil
}

func checkNewPassword(next, confirm string) error {
	if err := CheckPasswordStrength(next); err != nil {
		return err
	}
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	return nil
}

// ChangePassword updates the password of the signed-in user.
func (s *Shell) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if !s.auth.Current(ctx).Authenticated {
		return domain.ErrNotAuthenticated
	}
	if current == "" {
		return fmt.Errorf("change password: %w", domain.ErrInvalidInput)
	}
	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}
	if err := s.backend.ChangePassword(ctx, current, next); err != nil {
		// The session was just checked, so a rejection here is about the
		// current password, not the credential.
		var be *domain.BackendError
		if errors.As(err, &be) && (be.Status == http.StatusUnauthorized || be.Status == http.StatusBadRequest) {
			return fmt.Errorf("change password: %w: %w", domain.ErrWrongPassword, err)
		}
		return fmt.Errorf("change password: %w", err)
	}
	s.log.Info().Msg("password changed")
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link. The backend
// answers the same way whether or not the address is registered.
func (s *Shell) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("request reset: %w", domain.ErrInvalidInput)
	}
	if err := s.backend.RequestPasswordReset(ctx, strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("request reset: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using the token from a reset link.
func (s *Shell) ResetPassword(ctx context.Context, token, next, confirm string) error {
	if token == "" {
		return fmt.Errorf("reset password: %w", domain.ErrInvalidInput)
	}
	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}
	if err := s.backend.ResetPassword(ctx, token, next); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
