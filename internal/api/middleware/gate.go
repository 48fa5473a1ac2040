package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/api/metrics"
	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/service"
)

// Guard runs the authorization gate for one guarded route. Denied
// navigations are answered with a 303 to the login or forbidden screen;
// allowed ones get the session under "session".
func Guard(gate *service.Gate, route domain.RouteAuthSpec, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sh, err := shellFrom(c)
			if err != nil {
				return err
			}

			state := sh.Auth().Current(c.Request().Context())
			d := gate.Decide(route, state)
			metrics.GateDecisionsTotal.WithLabelValues(route.Path(), d.Outcome.String()).Inc()

			if d.Outcome != service.Allow {
				log.Debug().
					Str("scope", sh.Scope()).
					Str("route", route.Path()).
					Str("role", string(state.Role())).
					Str("outcome", d.Outcome.String()).
					Msg("navigation redirected")
				return c.Redirect(http.StatusSeeOther, d.Location)
			}

			c.Set("session", state)
			return next(c)
		}
	}
}
