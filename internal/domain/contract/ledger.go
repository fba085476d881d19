package contract

import "math"

// Accrual is a point-in-time breakdown of what the borrower owes.
type Accrual struct {
	ElapsedDays          float64 `json:"elapsed_days"`
	BaseInterest         float64 `json:"base_interest"`
	PenaltyInterest      float64 `json:"penalty_interest"`
	MissedPaymentPeriods int64   `json:"missed_payment_periods"`
	MissedFees           int64   `json:"missed_fees"`
	TotalOwed            int64   `json:"total_owed"`
	CurrentPaymentDue    int64   `json:"current_payment_due"`
}

func (c *Contract) Accrue(t Terms, now int64) Accrual {
	return Accrual{
		ElapsedDays:          c.ElapsedDays(now),
		BaseInterest:         c.AccruedBaseInterest(t, now),
		PenaltyInterest:      c.AccruedPenaltyInterest(t, now),
		MissedPaymentPeriods: c.MissedPaymentPeriods(t, now),
		MissedFees:           c.MissedFees(t, now),
		TotalOwed:            c.TotalOwed(t, now),
		CurrentPaymentDue:    c.CurrentPaymentDue(t, now),
	}
}

func (c *Contract) ElapsedDays(now int64) float64 {
	if !c.HasOpenLoan() {
		return 0
	}
	return daysBetween(c.LoanReceivedTick, now)
}

func (c *Contract) AccruedBaseInterest(t Terms, now int64) float64 {
	return float64(c.Principal) * t.InterestRatePerDay * c.ElapsedDays(now)
}

// AccruedPenaltyInterest runs from the first missed deadline and keeps
// running through collections.
func (c *Contract) AccruedPenaltyInterest(t Terms, now int64) float64 {
	if c.Status != StatusDelinquent && c.Status != StatusCollections {
		return 0
	}
	if c.FirstMissedPaymentTick <= 0 {
		return 0
	}
	return float64(c.Principal) * t.LatePenaltyRatePerDay * daysBetween(c.FirstMissedPaymentTick, now)
}

// MissedPaymentPeriods is derived from elapsed time, never stored.
func (c *Contract) MissedPaymentPeriods(t Terms, now int64) int64 {
	if !c.HasOpenLoan() {
		return 0
	}
	d := now - c.LastPaymentTick
	if d <= 0 {
		return 0
	}
	return d / t.intervalTicks()
}

func (c *Contract) MissedFees(t Terms, now int64) int64 {
	return c.MissedPaymentPeriods(t, now) * t.MissedPaymentFee
}

func (c *Contract) TotalOwed(t Terms, now int64) int64 {
	raw := float64(c.Principal) + c.chargesBeforePayments(t, now) - float64(c.PaymentsMade)
	if raw <= 0 {
		return 0
	}
	return ceilAmount(raw)
}

// CurrentPaymentDue applies payments to interest and fees before principal.
func (c *Contract) CurrentPaymentDue(t Terms, now int64) int64 {
	charges := c.chargesBeforePayments(t, now) - float64(c.PaymentsMade)
	due := int64(0)
	if charges > 0 {
		due = ceilAmount(charges)
	}
	if total := c.TotalOwed(t, now); total < due {
		return total
	}
	return due
}

func (c *Contract) RequiredTribute(t Terms) int64 {
	if c.LastLoanAmount <= 0 {
		return 0
	}
	return ceilAmount(float64(c.LastLoanAmount) * t.TributeMultiplier)
}

func (c *Contract) IsLoanTermExpired(now int64) bool {
	if c.LoanTermDays <= 0 {
		return false
	}
	return now >= c.LoanReceivedTick+int64(c.LoanTermDays)*TicksPerDay
}

func (c *Contract) chargesBeforePayments(t Terms, now int64) float64 {
	return c.AccruedBaseInterest(t, now) + c.AccruedPenaltyInterest(t, now) + float64(c.MissedFees(t, now))
}

// ---- transitions ----

func (c *Contract) StartLoan(t Terms, amount, now int64) error {
	switch {
	case c.Status == StatusLockedOut:
		return ErrLockedOut
	case c.Status != StatusNone:
		return ErrAlreadyBorrowed
	case amount <= 0:
		return ErrInvalidAmount
	}
	c.reset()
	c.Principal = amount
	c.OriginalPrincipal = amount
	c.LastLoanAmount = amount
	c.LoanReceivedTick = now
	c.LastPaymentTick = now
	c.LoanTermDays = t.LoanTermDays
	c.NextInterestDueTick = now + t.intervalTicks()
	c.Status = StatusCurrent
	return nil
}

func (c *Contract) SendDemand(t Terms, now int64) {
	c.InterestDemandSent = true
	c.PaymentDeadlineTick = now + t.windowTicks()
}

func (c *Contract) ApplyPayment(amount, now int64) {
	c.PaymentsMade += amount
	c.LastPaymentTick = now
}

// PayInterest amortizes a fixed share of the original loan per accepted
// payment, whatever the amount paid. Returns true when that settles the
// contract.
func (c *Contract) PayInterest(t Terms, amount, now int64) bool {
	c.ApplyPayment(amount, now)
	step := int64(math.Round(float64(c.OriginalPrincipal) * t.PrincipalReductionPerPayment))
	c.Principal -= step
	if c.Principal <= 0 {
		c.clear()
		return true
	}
	c.NextInterestDueTick = now + t.intervalTicks()
	c.InterestDemandSent = false
	c.PaymentDeadlineTick = 0
	c.FirstMissedPaymentTick = 0
	if c.Status == StatusDelinquent {
		c.Status = StatusCurrent
	}
	return false
}

// PayInFull returns true when the payment covered everything owed.
func (c *Contract) PayInFull(t Terms, amount, now int64) bool {
	c.ApplyPayment(amount, now)
	if c.TotalOwed(t, now) <= 0 {
		c.clear()
		return true
	}
	return false
}

func (c *Contract) RecordMissedDeadline(t Terms, now int64) {
	if c.FirstMissedPaymentTick == 0 {
		c.FirstMissedPaymentTick = c.PaymentDeadlineTick
		if c.FirstMissedPaymentTick <= 0 {
			c.FirstMissedPaymentTick = now
		}
	}
	c.InterestDemandSent = false
	c.PaymentDeadlineTick = 0
	next := c.NextInterestDueTick + t.intervalTicks()
	if next <= now {
		next = now + t.intervalTicks()
	}
	c.NextInterestDueTick = next
	c.Status = StatusDelinquent
}

// TriggerCollections stops checkpoint cycling. Accrual continues since it
// is derived from time.
func (c *Contract) TriggerCollections(t Terms, now int64) {
	c.Status = StatusCollections
	c.InterestDemandSent = false
	c.PaymentDeadlineTick = now + t.collectionsTicks()
	c.NextInterestDueTick = 0
}

func (c *Contract) SettleByForce() {
	last := c.LastLoanAmount
	if last <= 0 {
		last = c.OriginalPrincipal
	}
	c.reset()
	c.LastLoanAmount = last
	c.Status = StatusLockedOut
}

func (c *Contract) PayTribute() {
	c.Status = StatusNone
	c.LastLoanAmount = 0
}

func (c *Contract) clear() {
	c.reset()
	c.Status = StatusNone
}

func (c *Contract) reset() {
	*c = Contract{
		ID:              c.ID,
		BorrowerID:      c.BorrowerID,
		Status:          c.Status,
		SnapshotVersion: c.SnapshotVersion,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func daysBetween(from, to int64) float64 {
	if to <= from {
		return 0
	}
	return float64(to-from) / float64(TicksPerDay)
}

// ceilAmount rounds up to a whole unit, ignoring float noise below 1e-9.
func ceilAmount(v float64) int64 {
	return int64(math.Ceil(v - 1e-9))
}
