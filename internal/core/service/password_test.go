package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onegat/console/internal/core/domain"
)

func TestCheckPasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"Gatito#2024": true,
		"Ñandú.99A":   true,
		"Ab1!":        false,
		"gatito#2024": false,
		"Gatito#abcd": false,
		"Gatito2024x": false,
		"":            false,
	}
	for pw, ok := range cases {
		err := CheckPasswordStrength(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.ErrorIs(t, err, domain.ErrWeakPassword, pw)
		}
	}
}

func TestShell_ChangePassword(t *testing.T) {
	ctx := context.Background()
	var gotCurrent, gotNext, gotBearer string
	b := loginBackend(t, validToken(t), profile(domain.RoleVeterinario, true))
	b.changeFn = func(ctx context.Context, current, next string) error {
		gotCurrent, gotNext, gotBearer = current, next, b.bearer(ctx)
		return nil
	}
	sh := newTestShell(newMemStorage(), b)

	assert.ErrorIs(t, sh.ChangePassword(ctx, "old", "Gatito#2024", "Gatito#2024"), domain.ErrNotAuthenticated)

	_, err := sh.SignIn(ctx, SignInInput{Username: "ana", Password: "Secreto#1"})
	require.NoError(t, err)

	assert.ErrorIs(t, sh.ChangePassword(ctx, "old", "weak", "weak"), domain.ErrWeakPassword)
	assert.ErrorIs(t, sh.ChangePassword(ctx, "old", "Gatito#2024", "Gatito#2025"), domain.ErrPasswordMismatch)
	assert.Empty(t, gotNext)

	require.NoError(t, sh.ChangePassword(ctx, "old", "Gatito#2024", "Gatito#2024"))
	assert.Equal(t, "old", gotCurrent)
	assert.Equal(t, "Gatito#2024", gotNext)
	assert.Equal(t, sh.Auth().Snapshot().Token(), gotBearer)
}

func TestShell_ChangePassword_WrongCurrentPassword(t *testing.T) {
	ctx := context.Background()
	b := loginBackend(t, validToken(t), profile(domain.RoleVeterinario, true))
	b.changeFn = func(context.Context, string, string) error {
		return &domain.BackendError{Op: "change password", Status: http.StatusUnauthorized, Detail: "Contraseña actual incorrecta."}
	}
	sh := newTestShell(newMemStorage(), b)
	_, err := sh.SignIn(ctx, SignInInput{Username: "ana", Password: "Secreto#1"})
	require.NoError(t, err)

	err = sh.ChangePassword(ctx, "mala", "Gatito#2024", "Gatito#2024")

	assert.ErrorIs(t, err, domain.ErrWrongPassword)
	assert.ErrorIs(t, err, domain.ErrBackend)
	assert.True(t, sh.Auth().Snapshot().Authenticated, "a wrong current password must not end the session")
}

func TestShell_ResetPassword(t *testing.T) {
	ctx := context.Background()
	var gotToken, gotEmail string
	b := &stubBackend{
		requestResetFn: func(_ context.Context, email string) error { gotEmail = email; return nil },
		resetFn:        func(_ context.Context, token, _ string) error { gotToken = token; return nil },
	}
	sh := newTestShell(newMemStorage(), b)

	require.NoError(t, sh.RequestPasswordReset(ctx, " ana@onegat.es "))
	assert.Equal(t, "ana@onegat.es", gotEmail)
	assert.ErrorIs(t, sh.RequestPasswordReset(ctx, ""), domain.ErrInvalidInput)

	assert.ErrorIs(t, sh.ResetPassword(ctx, "", "Gatito#2024", "Gatito#2024"), domain.ErrInvalidInput)
	assert.ErrorIs(t, sh.ResetPassword(ctx, "rt", "qwerty", "qwerty"), domain.ErrWeakPassword)
	require.NoError(t, sh.ResetPassword(ctx, "rt", "Gatito#2024", "Gatito#2024"))
	assert.Equal(t, "rt", gotToken)
}
