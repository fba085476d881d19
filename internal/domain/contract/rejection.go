package contract

// Rejection is a refused borrower command. It carries a stable reason code
// for display; a rejected command never mutates the contract.
type Rejection struct {
	Reason string
	msg    string
}

func (r *Rejection) Error() string { return r.msg }

func reject(reason, msg string) *Rejection { return &Rejection{Reason: reason, msg: msg} }

var (
	ErrAlreadyBorrowed     = reject("already_borrowed", "a loan is already active")
	ErrLockedOut           = reject("locked_out", "borrowing is locked until tribute is paid")
	ErrNoActiveContract    = reject("no_active_contract", "no active loan")
	ErrInCollections       = reject("in_collections", "in collections: only full payment is accepted")
	ErrExceedsMaxLoan      = reject("exceeds_max_loan", "amount exceeds the maximum loan")
	ErrInsufficientFunds   = reject("insufficient_funds", "insufficient funds")
	ErrCreditorUnavailable = reject("creditor_unavailable", "creditor cannot be reached")
	ErrInvalidAmount       = reject("invalid_amount", "amount must be positive")
	ErrNotLockedOut        = reject("not_locked_out", "no tribute is owed")
	ErrNothingDue          = reject("nothing_due", "nothing is due right now")
	ErrRaidInProgress      = reject("raid_in_progress", "a collections raid is in progress")
)
