// Package http mounts the operational endpoints: probes, metrics and API docs.
package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/onegat/console/docs"
	"github.com/onegat/console/internal/core/ports"
	"github.com/onegat/console/internal/infrastructure/http/handlers"
)

// RegisterOps adds /health, /health/ready, /metrics and /swagger/* to e.
// None of them require a browser scope.
func RegisterOps(e *echo.Echo, deps ...ports.HealthChecker) {
	health := handlers.NewHealthHandler(deps...)

	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
