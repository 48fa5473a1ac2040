package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/service"
)

// ctxShell returns the shell bound by the Scope middleware. Its absence
// means the route was mounted without it.
func ctxShell(c echo.Context) (*service.Shell, error) {
	sh, _ := c.Get("shell").(*service.Shell)
	if sh == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no scope bound to request")
	}
	return sh, nil
}

// ctxSession returns the session the Guard middleware admitted, falling
// back to a fresh read for unguarded routes.
func ctxSession(c echo.Context, sh *service.Shell) domain.SessionState {
	if s, ok := c.Get("session").(domain.SessionState); ok {
		return s
	}
	return sh.Auth().Current(c.Request().Context())
}
