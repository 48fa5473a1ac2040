package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ScreenHandler renders console screens as view models. Guarded screens are
// mounted behind the Guard middleware.
type ScreenHandler struct{}

func NewScreenHandler() *ScreenHandler {
	return &ScreenHandler{}
}

// Guarded renders a role-restricted screen.
//
// @Summary      Guarded screen
// @Tags         screens
// @Produce      json
// @Success      200  {object}  screenView
// @Router       /colonias [get]
func (h *ScreenHandler) Guarded(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	s := ctxSession(c, sh)
	return c.JSON(http.StatusOK, screenView{
		Screen: c.Path(),
		Path:   c.Request().URL.Path,
		Params: params(c),
		User:   s.Profile,
		Menu:   menuFor(s),
	})
}

// Public renders a screen open to everyone.
//
// @Summary      Public screen
// @Tags         screens
// @Produce      json
// @Success      200  {object}  screenView
// @Router       /quienes-somos [get]
func (h *ScreenHandler) Public(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	s := sh.Auth().Current(c.Request().Context())
	v := screenView{
		Screen: c.Path(),
		Path:   c.Request().URL.Path,
		Params: params(c),
		Public: true,
		Menu:   menuFor(s),
	}
	if s.Authenticated {
		v.User = s.Profile
	}
	return c.JSON(http.StatusOK, v)
}

func params(c echo.Context) map[string]string {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}
	values := c.ParamValues()
	out := make(map[string]string, len(names))
	for i, n := range names {
		if i < len(values) {
			out[n] = values[i]
		}
	}
	return out
}
