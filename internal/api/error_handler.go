package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler maps domain errors to status codes and renders the
// {"error": "<message>"} envelope. Unexpected errors are logged and reported
// generically.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrCredentialExpired):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrWeakPassword), errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrWrongPassword):
		var be *domain.BackendError
		if errors.As(err, &be) && be.Detail != "" {
			return http.StatusUnprocessableEntity, be.Detail
		}
		return http.StatusUnprocessableEntity, domain.ErrWrongPassword.Error()
	case errors.Is(err, domain.ErrNotBlocking):
		return http.StatusConflict, "no demo terms acceptance pending"
	case errors.Is(err, domain.ErrSessionChanged):
		return http.StatusConflict, "session changed, reload"
	case errors.Is(err, domain.ErrDemoTermsPending):
		return http.StatusConflict, "demo terms still pending"
	}

	// The backend's own 4xx answers (used reset token, rate limit) reach the
	// user as they are. A 401 outside the password form means the backend
	// no longer accepts the credential.
	var be *domain.BackendError
	if errors.As(err, &be) {
		if be.Status == http.StatusUnauthorized {
			return http.StatusUnauthorized, "not authenticated"
		}
		if be.Status >= 400 && be.Status < 500 {
			msg := be.Detail
			if msg == "" {
				msg = http.StatusText(be.Status)
			}
			return be.Status, msg
		}
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("backend request failed")
		return http.StatusBadGateway, "backend unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
