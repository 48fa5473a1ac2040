package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/onegat/console/internal/api/metrics"
	"github.com/onegat/console/internal/core/service"
)

const scopeCookieMaxAge = 365 * 24 * 60 * 60

// ShellProvider resolves the shell of a browser scope.
type ShellProvider interface {
	Shell(ctx context.Context, scope string) (*service.Shell, error)
	Len() int
}

// ScopeConfig configures the scope cookie.
type ScopeConfig struct {
	CookieName string
	Secure     bool
}

// Scope identifies the browser by its scope cookie, issuing a new one when
// absent or malformed, and puts the scope's shell into the context.
func Scope(shells ShellProvider, cfg ScopeConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(ck.Value); err == nil {
					id = ck.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   scopeCookieMaxAge,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sh, err := shells.Shell(c.Request().Context(), id)
			if err != nil {
				return fmt.Errorf("open scope: %w", err)
			}
			metrics.ActiveShells.Set(float64(shells.Len()))

			c.Set("shell", sh)
			return next(c)
		}
	}
}

func shellFrom(c echo.Context) (*service.Shell, error) {
	sh, _ := c.Get("shell").(*service.Shell)
	if sh == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no scope bound to request")
	}
	return sh, nil
}
