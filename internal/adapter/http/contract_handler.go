package http

import (
	"context"
	"io"
	"net/http"

	"outpost-credit/internal/usecase/account"

	"github.com/labstack/echo/v4"
)

type ContractHandler struct{ uc *account.Usecase }

func NewContractHandler(uc *account.Usecase) *ContractHandler { return &ContractHandler{uc: uc} }

type borrowerParam struct {
	BorrowerID string `param:"borrower_id" validate:"required,hex32"`
}

type requestLoanReq struct {
	Amount int64 `json:"amount" validate:"required,gte=1"`
}

type noticesQuery struct {
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

// borrower returns the validated :borrower_id path param.
func borrower(c echo.Context) (string, error) {
	p := borrowerParam{BorrowerID: c.Param("borrower_id")}
	if err := c.Validate(&p); err != nil {
		return "", err
	}
	return p.BorrowerID, nil
}

func (h *ContractHandler) GetContract(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	v, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *ContractHandler) RequestLoan(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req requestLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	res, err := h.uc.RequestLoan(c.Request().Context(), id, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ContractHandler) PayInterest(c echo.Context) error {
	return h.command(c, h.uc.PayInterest)
}

func (h *ContractHandler) PayFull(c echo.Context) error {
	return h.command(c, h.uc.PayFull)
}

func (h *ContractHandler) SendTribute(c echo.Context) error {
	return h.command(c, h.uc.SendTribute)
}

func (h *ContractHandler) command(c echo.Context, run func(ctx context.Context, borrowerID string) (*account.Receipt, error)) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	res, err := run(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ContractHandler) ListNotices(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var q noticesQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&q); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.uc.Notices(c.Request().Context(), id, q.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notices": out})
}

func (h *ContractHandler) ExportSnapshot(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	b, err := h.uc.ExportSnapshot(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (h *ContractHandler) ImportSnapshot(c echo.Context) error {
	id, err := borrower(c)
	if err != nil {
		return validationFailed(c, err)
	}
	b, err := io.ReadAll(io.LimitReader(c.Request().Body, 64<<10))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	v, err := h.uc.ImportSnapshot(c.Request().Context(), id, b)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
