package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
	"github.com/onegat/console/internal/core/service"
	"github.com/onegat/console/internal/infrastructure/db/memory"
)

type stubBackend struct {
	loginFn        func(ctx context.Context, req ports.LoginRequest) (string, error)
	meFn           func(ctx context.Context) (*domain.UserProfile, error)
	acceptFn       func(ctx context.Context) error
	changeFn       func(ctx context.Context, current, next string) error
	requestResetFn func(ctx context.Context, email string) error
	resetFn        func(ctx context.Context, token, next string) error
}

func (s *stubBackend) Login(ctx context.Context, req ports.LoginRequest) (string, error) {
	return s.loginFn(ctx, req)
}

func (s *stubBackend) Me(ctx context.Context) (*domain.UserProfile, error) {
	return s.meFn(ctx)
}

func (s *stubBackend) AcceptDemoTerms(ctx context.Context) error {
	return s.acceptFn(ctx)
}

func (s *stubBackend) ChangePassword(ctx context.Context, current, next string) error {
	return s.changeFn(ctx, current, next)
}

func (s *stubBackend) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestResetFn(ctx, email)
}

func (s *stubBackend) ResetPassword(ctx context.Context, token, next string) error {
	return s.resetFn(ctx, token, next)
}

func signedToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newShell(t *testing.T, b *stubBackend) *service.Shell {
	t.Helper()
	sh := service.NewShell(
		"2d5b3f4e-8a61-4c1e-9f7a-0b6c2e9d1a77",
		memory.NewScopeStore(time.Hour),
		func(ports.TokenSource) ports.Backend { return b },
		service.NewTokenValidator(nil),
		zerolog.Nop(),
	)
	if err := sh.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return sh
}

func signIn(t *testing.T, sh *service.Shell, role domain.Role) {
	t.Helper()
	p := &domain.UserProfile{ID: 7, Username: "marta", Role: role, AcceptedDemoTerms: true}
	if err := sh.Auth().Login(context.Background(), signedToken(t), p); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func newContext(sh *service.Shell, method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("shell", sh)
	return c, rec
}
