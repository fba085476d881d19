package http

import (
	"errors"
	"log/slog"
	"net/http"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/usecase/account"

	"github.com/labstack/echo/v4"
)

// statusOf maps a domain error to its HTTP status. Amount problems are 422,
// state conflicts 409, anything unrecognised 500.
func statusOf(err error) int {
	var rej *contract.Rejection
	switch {
	case errors.As(err, &rej):
		switch rej {
		case contract.ErrInvalidAmount, contract.ErrExceedsMaxLoan:
			return http.StatusUnprocessableEntity
		}
		return http.StatusConflict
	case errors.Is(err, account.ErrInvalidSnapshot):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	code := statusOf(err)
	resp := ErrorResponse{Error: err.Error()}
	var rej *contract.Rejection
	if errors.As(err, &rej) {
		resp.Reason = rej.Reason
	}
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		resp.Error = "internal error"
	}
	return c.JSON(code, resp)
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
