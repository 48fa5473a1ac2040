package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/service"
)

const defaultHeartbeat = 15 * time.Second

// WatchHandler streams gate re-evaluations for a mounted screen.
type WatchHandler struct {
	gate      *service.Gate
	routes    *domain.RouteTable
	heartbeat time.Duration
}

func NewWatchHandler(gate *service.Gate, routes *domain.RouteTable, heartbeat time.Duration) *WatchHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &WatchHandler{gate: gate, routes: routes, heartbeat: heartbeat}
}

type redirectEvent struct {
	Outcome  string `json:"outcome"`
	Location string `json:"location"`
}

// Watch keeps a server-sent event stream open while a screen is mounted and
// emits one "redirect" event when the session no longer admits it (logout
// from another tab, expiry, role change). Every heartbeat re-checks expiry.
//
// @Summary      Watch a mounted screen
// @Tags         session
// @Produce      text/event-stream
// @Param        path  query     string  true  "Concrete screen path, e.g. /gatos/12"
// @Success      200   {object}  redirectEvent
// @Failure      400   {object}  map[string]string
// @Router       /session/watch [get]
func (h *WatchHandler) Watch(c echo.Context) error {
	sh, err := ctxShell(c)
	if err != nil {
		return err
	}
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	route, ok := h.routes.Match(path)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "path is not a guarded screen")
	}

	ctx := c.Request().Context()
	decisions := h.gate.Watch(ctx, sh.Auth(), route)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(res, ": watching\n\n")
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case d, ok := <-decisions:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(redirectEvent{Outcome: d.Outcome.String(), Location: d.Location})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(res, "event: redirect\ndata: %s\n\n", payload)
			res.Flush()
			return nil
		case <-ticker.C:
			sh.Auth().Current(ctx)
			_, _ = fmt.Fprint(res, ": ping\n\n")
			res.Flush()
		}
	}
}
