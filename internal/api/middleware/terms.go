package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onegat/console/internal/api/metrics"
	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/service"
)

const (
	TermsAcceptPath = "/terms/accept"
	LogoutPath      = "/logout"
)

type termsView struct {
	Screen     string              `json:"screen"`
	User       *domain.UserProfile `json:"user,omitempty"`
	AcceptPath string              `json:"accept_path"`
	LogoutPath string              `json:"logout_path"`
}

// Terms replaces every response with the demo-terms screen while the
// scope's interceptor is blocking. Mount it on everything except the
// accept and logout actions.
func Terms() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sh, err := shellFrom(c)
			if err != nil {
				return err
			}
			if sh.Terms().State() != service.TermsBlocking {
				return next(c)
			}

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			metrics.GateDecisionsTotal.WithLabelValues(route, "terms_blocked").Inc()

			return c.JSON(http.StatusOK, termsView{
				Screen:     "demo-terms",
				User:       sh.Terms().PendingProfile(),
				AcceptPath: TermsAcceptPath,
				LogoutPath: LogoutPath,
			})
		}
	}
}
