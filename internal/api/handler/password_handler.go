package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PasswordHandler serves the change, request-reset and reset forms.
type PasswordHandler struct{}

func NewPasswordHandler() *PasswordHandler {
	return &PasswordHandler{}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type requestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Change updates the signed-in user's password.
//
// @Summary      Change password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Passwords"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /cambiar-contrasena [post]
func (h *PasswordHandler) Change(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sh.ChangePassword(c.Request().Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// RequestReset mails a reset link. The answer does not reveal whether the
// address is registered.
//
// @Summary      Request password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      requestResetRequest  true  "Email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /solicitar-recuperacion [post]
func (h *PasswordHandler) RequestReset(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	var req requestResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sh.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "if the address is registered, a reset link has been sent"})
}

// Reset sets a new password from a reset link token.
//
// @Summary      Reset password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /resetear-contrasena [post]
func (h *PasswordHandler) Reset(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sh.ResetPassword(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
