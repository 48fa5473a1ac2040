package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/api/metrics"
	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/service"
)

type AuthHandler struct {
	gate *service.Gate
	log  zerolog.Logger
}

func NewAuthHandler(gate *service.Gate, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, log: log}
}

type loginRequest struct {
	Username      string `json:"username" validate:"required,max=150"`
	Password      string `json:"password" validate:"required,max=256"`
	AcceptedTerms *bool  `json:"accepted_terms,omitempty"`
}

// LoginView renders the login screen.
//
// @Summary      Login screen
// @Tags         session
// @Produce      json
// @Success      200  {object}  loginView
// @Router       / [get]
func (h *AuthHandler) LoginView(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	s := sh.Auth().Current(c.Request().Context())
	v := loginView{Screen: "login", Authenticated: s.Authenticated}
	if s.Authenticated {
		v.User = s.Profile
		v.Landing = domain.LandingPath(s.Role())
	}
	return c.JSON(http.StatusOK, v)
}

// Login signs the browser in.
//
// @Summary      Sign in
// @Description  Authenticates against the backend. A profile that has not accepted the demo terms puts the browser into the demo-terms screen.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  loginErrorResponse
// @Failure      401   {object}  loginErrorResponse
// @Failure      403   {object}  loginErrorResponse
// @Failure      429   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := sh.SignIn(c.Request().Context(), service.SignInInput{
		Username:      req.Username,
		Password:      req.Password,
		AcceptedTerms: req.AcceptedTerms,
	})
	if err != nil {
		var le *domain.LoginError
		if errors.As(err, &le) {
			metrics.LoginsTotal.WithLabelValues(string(le.Reason)).Inc()
			return c.JSON(loginStatus(le.Reason), loginErrorResponse{
				Error:           loginMessage(le),
				Reason:          string(le.Reason),
				MustAcceptTerms: le.Reason == domain.LoginTermsRequired,
			})
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	if res.TermsPending {
		metrics.LoginsTotal.WithLabelValues("terms_pending").Inc()
		return c.JSON(http.StatusOK, loginResponse{User: res.Profile, TermsPending: true})
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{User: res.Profile, Redirect: res.Landing})
}

func loginStatus(r domain.LoginReason) int {
	switch r {
	case domain.LoginBadCredentials:
		return http.StatusUnauthorized
	case domain.LoginTermsRequired:
		return http.StatusBadRequest
	case domain.LoginLicenseExpired:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func loginMessage(le *domain.LoginError) string {
	switch le.Reason {
	case domain.LoginBadCredentials:
		return domain.ErrBadCredentials.Error()
	case domain.LoginTermsRequired:
		return domain.ErrTermsRequired.Error()
	}
	if le.Detail != "" {
		return le.Detail
	}
	return le.Unwrap().Error()
}

// Logout signs the browser out. It always succeeds.
//
// @Summary      Sign out
// @Tags         session
// @Produce      json
// @Success      200  {object}  redirectResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	sh.SignOut(c.Request().Context())
	metrics.LogoutsTotal.Inc()
	return c.JSON(http.StatusOK, redirectResponse{Redirect: h.gate.LoginPath()})
}

// Session reports the current session of the browser.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionView
// @Router       /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	s := sh.Auth().Current(c.Request().Context())

	v := sessionView{Authenticated: s.Authenticated, Terms: sh.Terms().State().String()}
	if s.Authenticated {
		exp := s.Credential.ExpiresAt
		v.User = s.Profile
		v.ExpiresAt = &exp
		v.Menu = domain.Menu(s.Role())
		v.Landing = domain.LandingPath(s.Role())
	}
	return c.JSON(http.StatusOK, v)
}

// AcceptTerms accepts the demo terms for the pending session.
//
// @Summary      Accept demo terms
// @Description  Accepts on the backend, re-fetches the profile and installs the session. Concurrent submissions share one backend call.
// @Tags         session
// @Produce      json
// @Success      200  {object}  loginResponse
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /terms/accept [post]
func (h *AuthHandler) AcceptTerms(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}

	err = sh.Terms().Accept(c.Request().Context())
	switch {
	case err == nil:
		metrics.TermsAcceptTotal.WithLabelValues("accepted").Inc()
		s := sh.Auth().Snapshot()
		return c.JSON(http.StatusOK, loginResponse{User: s.Profile, Redirect: domain.LandingPath(s.Role())})
	case errors.Is(err, domain.ErrCredentialExpired):
		metrics.TermsAcceptTotal.WithLabelValues("stale").Inc()
		return c.Redirect(http.StatusSeeOther, h.gate.LoginPath())
	case errors.Is(err, domain.ErrSessionChanged):
		metrics.TermsAcceptTotal.WithLabelValues("stale").Inc()
		return err
	default:
		metrics.TermsAcceptTotal.WithLabelValues("failed").Inc()
		h.log.Warn().Err(err).Str("scope", sh.Scope()).Msg("demo terms acceptance failed")
		return err
	}
}
