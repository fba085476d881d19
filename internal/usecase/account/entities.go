package account

import (
	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"
)

// ContractView is the contract plus every derived figure at tick Now.
type ContractView struct {
	BorrowerID string          `json:"borrower_id"`
	Status     contract.Status `json:"status"`
	Now        int64           `json:"now"`

	Principal         int64 `json:"principal"`
	OriginalPrincipal int64 `json:"original_principal"`
	PaymentsMade      int64 `json:"payments_made"`
	LastLoanAmount    int64 `json:"last_loan_amount"`

	LoanReceivedTick       int64 `json:"loan_received_tick"`
	LoanTermDays           int   `json:"loan_term_days"`
	NextInterestDueTick    int64 `json:"next_interest_due_tick"`
	InterestDemandSent     bool  `json:"interest_demand_sent"`
	PaymentDeadlineTick    int64 `json:"payment_deadline_tick"`
	FirstMissedPaymentTick int64 `json:"first_missed_payment_tick"`
	TermExpired            bool  `json:"term_expired"`

	RaidActive     bool   `json:"raid_active"`
	RaidLocationID string `json:"raid_location_id,omitempty"`

	Accrual         contract.Accrual `json:"accrual"`
	RequiredTribute int64            `json:"required_tribute"`
}

// Receipt is returned by every successful money-moving command.
type Receipt struct {
	Command string       `json:"command"`
	Amount  int64        `json:"amount"`
	Purse   string       `json:"purse,omitempty"`
	Settled bool         `json:"settled"`
	View    ContractView `json:"contract"`
}

type NoticeDTO struct {
	NoticeID string          `json:"notice_id"`
	TitleKey string          `json:"title_key"`
	BodyKey  string          `json:"body_key"`
	Severity notice.Severity `json:"severity"`
	Args     map[string]any  `json:"args,omitempty"`
	Tick     int64           `json:"tick"`
}

func viewOf(c *contract.Contract, t contract.Terms, now int64) ContractView {
	return ContractView{
		BorrowerID:             c.BorrowerID,
		Status:                 c.Status,
		Now:                    now,
		Principal:              c.Principal,
		OriginalPrincipal:      c.OriginalPrincipal,
		PaymentsMade:           c.PaymentsMade,
		LastLoanAmount:         c.LastLoanAmount,
		LoanReceivedTick:       c.LoanReceivedTick,
		LoanTermDays:           c.LoanTermDays,
		NextInterestDueTick:    c.NextInterestDueTick,
		InterestDemandSent:     c.InterestDemandSent,
		PaymentDeadlineTick:    c.PaymentDeadlineTick,
		FirstMissedPaymentTick: c.FirstMissedPaymentTick,
		TermExpired:            c.HasOpenLoan() && c.IsLoanTermExpired(now),
		RaidActive:             c.CollectionsRaidActive,
		RaidLocationID:         c.CollectionsRaidLocationID,
		Accrual:                c.Accrue(t, now),
		RequiredTribute:        c.RequiredTribute(t),
	}
}
