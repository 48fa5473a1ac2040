// Package backend is the HTTP client for the Onegat REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Config holds the connection settings shared by every client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport is the underlying round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the backend on behalf of one shell.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewFactory returns a ports.BackendFactory building clients that share the
// same base transport.
func NewFactory(cfg Config) ports.BackendFactory {
	return func(tokens ports.TokenSource) ports.Backend {
		return New(cfg, tokens)
	}
}

func New(cfg Config, tokens ports.TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: base, tokens: tokens},
		},
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) Login(ctx context.Context, req ports.LoginRequest) (string, error) {
	var out loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", req, &out)
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) {
			return "", classifyLogin(be)
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", &domain.BackendError{Op: "login", Status: http.StatusOK, Detail: "missing access_token"}
	}
	return out.AccessToken, nil
}

func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := c.do(ctx, "me", http.MethodGet, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AcceptDemoTerms(ctx context.Context) error {
	return c.do(ctx, "accept demo terms", http.MethodPost, "/auth/accept-demo-terms", nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, "change password", http.MethodPost, "/auth/change-password", body, nil)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, "request reset", http.MethodPost, "/auth/request-reset", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, next string) error {
	body := map[string]string{"token": token, "new_password": next}
	return c.do(ctx, "reset password", http.MethodPost, "/auth/reset-password", body, nil)
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) Name() string { return "backend" }

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
