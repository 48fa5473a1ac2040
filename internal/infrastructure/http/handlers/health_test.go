package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string               { return s.name }
func (s stubChecker) Ping(context.Context) error { return s.err }

func TestHealth_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_Readiness(t *testing.T) {
	cases := []struct {
		name   string
		deps   []stubChecker
		code   int
		status string
	}{
		{"all up", []stubChecker{{name: "redis"}, {name: "backend"}}, http.StatusOK, "ok"},
		{"backend down", []stubChecker{{name: "redis"}, {name: "backend", err: errors.New("connection refused")}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			h := NewHealthHandler(tc.deps[0], tc.deps[1])
			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tc.status || len(resp.Dependencies) != 2 {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}
