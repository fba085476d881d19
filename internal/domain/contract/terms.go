package contract

import "math"

// Terms is a read-only snapshot of the lending configuration. The owner of
// the configuration clamps it; the ledger uses the values as given.
type Terms struct {
	InterestRatePerDay           float64 `json:"interest_rate_per_day"`
	LatePenaltyRatePerDay        float64 `json:"late_penalty_rate_per_day"`
	InterestIntervalDays         float64 `json:"interest_interval_days"`
	InterestPaymentWindowHours   float64 `json:"interest_payment_window_hours"`
	GraceMissedPayments          int     `json:"grace_missed_payments"`
	CollectionsDeadlineHours     float64 `json:"collections_deadline_hours"`
	LoanTermDays                 int     `json:"loan_term_days"`
	PrincipalReductionPerPayment float64 `json:"principal_reduction_per_payment"`
	MissedPaymentFee             int64   `json:"missed_payment_fee"`
	TributeMultiplier            float64 `json:"tribute_multiplier"`
	RaidStrengthMultiplier       float64 `json:"raid_strength_multiplier"`
	// MaxLoanAmount of 0 means uncapped.
	MaxLoanAmount int64 `json:"max_loan_amount"`
}

// Clamp bounds every field to a usable range.
func (t Terms) Clamp() Terms {
	t.InterestRatePerDay = clampF(t.InterestRatePerDay, 0, 1)
	t.LatePenaltyRatePerDay = clampF(t.LatePenaltyRatePerDay, 0, 1)
	t.InterestIntervalDays = clampF(t.InterestIntervalDays, 0.25, 60)
	t.InterestPaymentWindowHours = clampF(t.InterestPaymentWindowHours, 1, 24*30)
	t.GraceMissedPayments = clampI(t.GraceMissedPayments, 0, 20)
	t.CollectionsDeadlineHours = clampF(t.CollectionsDeadlineHours, 1, 24*30)
	t.LoanTermDays = clampI(t.LoanTermDays, 0, 3600)
	t.PrincipalReductionPerPayment = clampF(t.PrincipalReductionPerPayment, 0, 1)
	if t.MissedPaymentFee < 0 {
		t.MissedPaymentFee = 0
	}
	t.TributeMultiplier = clampF(t.TributeMultiplier, 0, 100)
	t.RaidStrengthMultiplier = clampF(t.RaidStrengthMultiplier, 0, 100)
	if t.MaxLoanAmount < 0 {
		t.MaxLoanAmount = 0
	}
	return t
}

func (t Terms) intervalTicks() int64 {
	n := int64(math.Round(t.InterestIntervalDays * float64(TicksPerDay)))
	if n < 1 {
		return 1
	}
	return n
}

func (t Terms) windowTicks() int64 {
	return int64(math.Round(t.InterestPaymentWindowHours * float64(TicksPerHour)))
}

func (t Terms) collectionsTicks() int64 {
	return int64(math.Round(t.CollectionsDeadlineHours * float64(TicksPerHour)))
}

func clampF(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
