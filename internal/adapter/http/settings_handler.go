package http

import (
	"net/http"

	"outpost-credit/internal/adapter/settings"

	"github.com/labstack/echo/v4"
)

type SettingsHandler struct{ store *settings.Store }

func NewSettingsHandler(s *settings.Store) *SettingsHandler { return &SettingsHandler{store: s} }

// Every field is optional; absent fields keep their current value.
type termsPatchReq struct {
	InterestRatePerDay           *float64 `json:"interest_rate_per_day"           validate:"omitempty,gte=0,lte=1"`
	LatePenaltyRatePerDay        *float64 `json:"late_penalty_rate_per_day"       validate:"omitempty,gte=0,lte=1"`
	InterestIntervalDays         *float64 `json:"interest_interval_days"          validate:"omitempty,dec2,gte=0.25,lte=60"`
	InterestPaymentWindowHours   *float64 `json:"interest_payment_window_hours"   validate:"omitempty,dec2,gte=1,lte=720"`
	GraceMissedPayments          *float64 `json:"grace_missed_payments"           validate:"omitempty,intlike,gte=0,lte=20"`
	CollectionsDeadlineHours     *float64 `json:"collections_deadline_hours"      validate:"omitempty,dec2,gte=1,lte=720"`
	LoanTermDays                 *float64 `json:"loan_term_days"                  validate:"omitempty,intlike,gte=0,lte=3600"`
	PrincipalReductionPerPayment *float64 `json:"principal_reduction_per_payment" validate:"omitempty,gte=0,lte=1"`
	MissedPaymentFee             *float64 `json:"missed_payment_fee"              validate:"omitempty,intlike,gte=0"`
	TributeMultiplier            *float64 `json:"tribute_multiplier"              validate:"omitempty,gte=0,lte=100"`
	RaidStrengthMultiplier       *float64 `json:"raid_strength_multiplier"        validate:"omitempty,gte=0,lte=100"`
	MaxLoanAmount                *float64 `json:"max_loan_amount"                 validate:"omitempty,intlike,gte=0"`
}

func (r termsPatchReq) fields() map[string]float64 {
	out := map[string]float64{}
	for k, v := range map[string]*float64{
		"interest_rate_per_day":           r.InterestRatePerDay,
		"late_penalty_rate_per_day":       r.LatePenaltyRatePerDay,
		"interest_interval_days":          r.InterestIntervalDays,
		"interest_payment_window_hours":   r.InterestPaymentWindowHours,
		"grace_missed_payments":           r.GraceMissedPayments,
		"collections_deadline_hours":      r.CollectionsDeadlineHours,
		"loan_term_days":                  r.LoanTermDays,
		"principal_reduction_per_payment": r.PrincipalReductionPerPayment,
		"missed_payment_fee":              r.MissedPaymentFee,
		"tribute_multiplier":              r.TributeMultiplier,
		"raid_strength_multiplier":        r.RaidStrengthMultiplier,
		"max_loan_amount":                 r.MaxLoanAmount,
	} {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func (h *SettingsHandler) GetTerms(c echo.Context) error {
	t, err := h.store.Terms(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *SettingsHandler) UpdateTerms(c echo.Context) error {
	var req termsPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	t, err := h.store.Update(c.Request().Context(), req.fields())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *SettingsHandler) ResetTerms(c echo.Context) error {
	if err := h.store.Reset(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return h.GetTerms(c)
}
