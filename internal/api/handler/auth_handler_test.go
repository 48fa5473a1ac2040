package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
	"github.com/onegat/console/internal/core/service"
)

func newAuthHandler() *AuthHandler {
	return NewAuthHandler(service.NewGate(service.DefaultLoginPath, service.DefaultForbiddenPath), zerolog.Nop())
}

func TestAuthHandler_Login_Success(t *testing.T) {
	token := signedToken(t)
	b := &stubBackend{
		loginFn: func(ctx context.Context, req ports.LoginRequest) (string, error) {
			if req.Username != "marta" || req.Password != "Gatos#2024" {
				t.Fatalf("unexpected credentials: %+v", req)
			}
			return token, nil
		},
		meFn: func(ctx context.Context) (*domain.UserProfile, error) {
			if tok, _ := ports.TokenFromContext(ctx); tok != token {
				t.Fatalf("profile fetched without the fresh token")
			}
			return &domain.UserProfile{ID: 7, Username: "marta", Role: domain.RoleVoluntario, AcceptedDemoTerms: true}, nil
		},
	}
	sh := newShell(t, b)

	c, rec := newContext(sh, http.MethodPost, "/login", strings.NewReader(`{"username":" marta ","password":"Gatos#2024"}`))
	if err := newAuthHandler().Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != "/mis-colonias" || resp.TermsPending {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if s := sh.Auth().Snapshot(); !s.Authenticated || s.Role() != domain.RoleVoluntario {
		t.Fatalf("session not installed: %+v", s)
	}
}

func TestAuthHandler_Login_DemoTermsPending(t *testing.T) {
	token := signedToken(t)
	b := &stubBackend{
		loginFn: func(context.Context, ports.LoginRequest) (string, error) { return token, nil },
		meFn: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: 7, Username: "marta", Role: domain.RoleUsuario}, nil
		},
	}
	sh := newShell(t, b)

	c, rec := newContext(sh, http.MethodPost, "/login", strings.NewReader(`{"username":"marta","password":"x"}`))
	if err := newAuthHandler().Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.TermsPending || resp.Redirect != "" {
		t.Fatalf("expected terms pending, got %+v", resp)
	}
	if sh.Terms().State() != service.TermsBlocking {
		t.Fatalf("expected blocking interceptor, got %s", sh.Terms().State())
	}
	if sh.Auth().Snapshot().Authenticated {
		t.Fatalf("session must not be installed before terms are accepted")
	}
}

func TestAuthHandler_Login_Rejected(t *testing.T) {
	cases := []struct {
		reason    domain.LoginReason
		code      int
		mustTerms bool
	}{
		{domain.LoginBadCredentials, http.StatusUnauthorized, false},
		{domain.LoginTermsRequired, http.StatusBadRequest, true},
		{domain.LoginLicenseExpired, http.StatusForbidden, false},
		{domain.LoginUnknown, http.StatusBadGateway, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			b := &stubBackend{
				loginFn: func(context.Context, ports.LoginRequest) (string, error) {
					return "", &domain.LoginError{Reason: tc.reason, Detail: "rechazado"}
				},
			}
			sh := newShell(t, b)

			c, rec := newContext(sh, http.MethodPost, "/login", strings.NewReader(`{"username":"marta","password":"x"}`))
			if err := newAuthHandler().Login(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}

			var resp loginErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Reason != string(tc.reason) || resp.MustAcceptTerms != tc.mustTerms {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if sh.Auth().Snapshot().Authenticated {
				t.Fatalf("rejected login must not authenticate")
			}
		})
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	b := &stubBackend{
		loginFn: func(context.Context, ports.LoginRequest) (string, error) {
			t.Fatalf("backend must not be called")
			return "", nil
		},
	}
	sh := newShell(t, b)

	c, _ := newContext(sh, http.MethodPost, "/login", strings.NewReader(`{"username":"marta"}`))
	err := newAuthHandler().Login(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	sh := newShell(t, &stubBackend{})
	signIn(t, sh, domain.RoleAdmin)

	c, rec := newContext(sh, http.MethodPost, "/logout", nil)
	if err := newAuthHandler().Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redirect":"/"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if sh.Auth().Snapshot().Authenticated {
		t.Fatalf("expected session cleared")
	}
}

func TestAuthHandler_Session(t *testing.T) {
	sh := newShell(t, &stubBackend{})
	signIn(t, sh, domain.RoleVeterinario)

	c, rec := newContext(sh, http.MethodGet, "/session", nil)
	if err := newAuthHandler().Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp sessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Authenticated || resp.Landing != "/gatos" || len(resp.Menu) == 0 || resp.ExpiresAt == nil {
		t.Fatalf("unexpected session view: %+v", resp)
	}
}

func TestAuthHandler_Session_Anonymous(t *testing.T) {
	sh := newShell(t, &stubBackend{})

	c, rec := newContext(sh, http.MethodGet, "/session", nil)
	if err := newAuthHandler().Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp sessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Authenticated || resp.User != nil || resp.Menu != nil {
		t.Fatalf("anonymous session leaked data: %+v", resp)
	}
}

func TestAuthHandler_AcceptTerms(t *testing.T) {
	token := signedToken(t)
	accepted := false
	b := &stubBackend{
		loginFn: func(context.Context, ports.LoginRequest) (string, error) { return token, nil },
		meFn: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: 7, Username: "marta", Role: domain.RoleUsuario, AcceptedDemoTerms: accepted}, nil
		},
		acceptFn: func(ctx context.Context) error {
			if tok, _ := ports.TokenFromContext(ctx); tok != token {
				t.Fatalf("accept sent without the pending token")
			}
			accepted = true
			return nil
		},
	}
	sh := newShell(t, b)
	if _, err := sh.SignIn(context.Background(), service.SignInInput{Username: "marta", Password: "x"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	c, rec := newContext(sh, http.MethodPost, "/terms/accept", nil)
	if err := newAuthHandler().AcceptTerms(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != "/mis-gatos" {
		t.Fatalf("unexpected redirect %q", resp.Redirect)
	}
	if sh.Terms().State() != service.TermsClear || !sh.Auth().Snapshot().Authenticated {
		t.Fatalf("expected clear interceptor and installed session")
	}
}

func TestAuthHandler_AcceptTerms_NothingPending(t *testing.T) {
	sh := newShell(t, &stubBackend{})

	c, _ := newContext(sh, http.MethodPost, "/terms/accept", nil)
	err := newAuthHandler().AcceptTerms(c)
	if !errors.Is(err, domain.ErrNotBlocking) {
		t.Fatalf("expected ErrNotBlocking, got %v", err)
	}
}

func TestAuthHandler_AcceptTerms_BackendFailureKeepsBlocking(t *testing.T) {
	token := signedToken(t)
	b := &stubBackend{
		loginFn: func(context.Context, ports.LoginRequest) (string, error) { return token, nil },
		meFn: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: 7, Username: "marta", Role: domain.RoleUsuario}, nil
		},
		acceptFn: func(context.Context) error {
			return &domain.BackendError{Op: "accept demo terms", Status: http.StatusServiceUnavailable}
		},
	}
	sh := newShell(t, b)
	if _, err := sh.SignIn(context.Background(), service.SignInInput{Username: "marta", Password: "x"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	c, _ := newContext(sh, http.MethodPost, "/terms/accept", nil)
	if err := newAuthHandler().AcceptTerms(c); !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if sh.Terms().State() != service.TermsBlocking {
		t.Fatalf("expected interceptor to stay blocking")
	}
}

func TestAuthHandler_LoginView(t *testing.T) {
	sh := newShell(t, &stubBackend{})
	signIn(t, sh, domain.RoleResponsable)

	c, rec := newContext(sh, http.MethodGet, "/", nil)
	if err := newAuthHandler().LoginView(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp loginView
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Screen != "login" || !resp.Authenticated || resp.Landing != "/colonias" {
		t.Fatalf("unexpected login view: %+v", resp)
	}
}
