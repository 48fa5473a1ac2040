package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onegat/console/internal/core/ports"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []ports.HealthChecker
}

func NewHealthHandler(deps ...ports.HealthChecker) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Liveness answers 200 as long as the process serves requests.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness pings the scope storage and the backend. Any failure makes the
// instance unready.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			deps[d.Name()] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[d.Name()] = dependencyStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
