package http

import (
	"net/http"
	"time"

	"outpost-credit/internal/domain/port"

	"github.com/labstack/echo/v4"
)

type Handler struct{ clock port.Clock }

func NewHandler(clock port.Clock) *Handler { return &Handler{clock: clock} }

// Health reports liveness plus the simulation tick when the clock answers.
func (h *Handler) Health(c echo.Context) error {
	body := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if h.clock != nil {
		if now, err := h.clock.Now(c.Request().Context()); err == nil {
			body["tick"] = now
		} else {
			body["status"] = "degraded"
		}
	}
	return c.JSON(http.StatusOK, body)
}
