package http

import (
	"net/http"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/port"
	"outpost-credit/internal/usecase/scheduler"

	"github.com/labstack/echo/v4"
)

// SimHandler lets the host drive simulated time by hand.
type SimHandler struct {
	runner *scheduler.Runner
	clock  port.Clock
}

func NewSimHandler(r *scheduler.Runner, clock port.Clock) *SimHandler {
	return &SimHandler{runner: r, clock: clock}
}

type advanceReq struct {
	Units int `json:"units" validate:"required,gte=1,lte=10000"`
}

func (h *SimHandler) Clock(c echo.Context) error {
	now, err := h.clock.Now(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"now":        now,
		"day":        float64(now) / float64(contract.TicksPerDay),
		"unit_ticks": h.runner.UnitTicks(),
	})
}

func (h *SimHandler) Advance(c echo.Context) error {
	var req advanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	rep, err := h.runner.Advance(c.Request().Context(), req.Units)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
