package http

import (
	"net/http"

	"outpost-credit/internal/adapter/world"

	"github.com/labstack/echo/v4"
)

// WorldHandler is the host-side surface for placing locations, moving
// parties and funding purses.
type WorldHandler struct{ store *world.Store }

func NewWorldHandler(s *world.Store) *WorldHandler { return &WorldHandler{store: s} }

type locationReq struct {
	LocationID string `json:"location_id" validate:"required,max=64"`
}

type partyReq struct {
	LocationID string `json:"location_id" validate:"max=64"`
}

type depositReq struct {
	Scope  string `json:"scope"  validate:"required,oneof=home party"`
	Amount int64  `json:"amount" validate:"required,gte=1"`
}

type defeatReq struct {
	Count int64 `json:"count" validate:"required,gte=1"`
}

func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func (h *WorldHandler) SetOutpost(c echo.Context) error {
	var req locationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.store.SetOutpost(c.Request().Context(), req.LocationID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"outpost": req.LocationID})
}

func (h *WorldHandler) SetHome(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req locationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.store.SetHome(c.Request().Context(), id, req.LocationID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"borrower_id": id, "home": req.LocationID})
}

func (h *WorldHandler) SetParty(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req partyReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := h.store.SetParty(c.Request().Context(), id, req.LocationID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"borrower_id": id, "party": req.LocationID})
}

func (h *WorldHandler) Deposit(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req depositReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	scope, err := world.ParseScope(req.Scope)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	}
	ctx := c.Request().Context()
	p := h.store.Purse(scope, id)
	if err := p.Add(ctx, req.Amount); err != nil {
		return writeError(c, err)
	}
	bal, err := p.CountAvailable(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"scope": scope, "balance": bal})
}

func (h *WorldHandler) Purses(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	ctx := c.Request().Context()
	out := map[string]int64{}
	for _, s := range []world.Scope{world.ScopeHome, world.ScopeParty} {
		n, err := h.store.Purse(s, id).CountAvailable(ctx)
		if err != nil {
			return writeError(c, err)
		}
		out[string(s)] = n
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WorldHandler) RemoveLocation(c echo.Context) error {
	loc := c.Param("location_id")
	if err := h.store.RemoveLocation(c.Request().Context(), loc); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorldHandler) Hostiles(c echo.Context) error {
	loc := c.Param("location_id")
	n, err := h.store.HostilesAt(c.Request().Context(), loc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"location_id": loc, "hostiles": n})
}

func (h *WorldHandler) DefeatHostiles(c echo.Context) error {
	var req defeatReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	loc := c.Param("location_id")
	left, err := h.store.DefeatHostiles(c.Request().Context(), loc, req.Count)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"location_id": loc, "hostiles": left})
}
