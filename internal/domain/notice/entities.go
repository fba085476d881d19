package notice

import (
	"encoding/json"
	"time"
)

type Severity string

const (
	SeverityPositive Severity = "positive"
	SeverityNeutral  Severity = "neutral"
	SeverityNegative Severity = "negative"
	SeverityThreat   Severity = "threat"
)

// Title keys. Localized text lives with the presentation layer.
const (
	KeyLoanGranted     = "debt.loan_granted"
	KeyPaymentDue      = "debt.payment_due"
	KeyPaymentMissed   = "debt.payment_missed"
	KeyGraceExceeded   = "debt.grace_exceeded"
	KeyTermExpired     = "debt.term_expired"
	KeyRaidLaunched    = "debt.raid_launched"
	KeyDebtSettled     = "debt.settled_by_force"
	KeyInterestPaid    = "debt.interest_paid"
	KeyLoanRepaid      = "debt.loan_repaid"
	KeyTributeAccepted = "debt.tribute_accepted"
)

// Table: notices
type Notice struct {
	ID         uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	NoticeID   string          `gorm:"column:notice_id;type:char(32);not null;uniqueIndex:ux_notices_notice_id" json:"notice_id"`
	BorrowerID string          `gorm:"column:borrower_id;size:32;not null;index:idx_notices_borrower" json:"borrower_id"`
	TitleKey   string          `gorm:"column:title_key;size:64;not null" json:"title_key"`
	BodyKey    string          `gorm:"column:body_key;size:64;not null" json:"body_key"`
	Severity   Severity        `gorm:"column:severity;size:16;not null" json:"severity"`
	Args       json.RawMessage `gorm:"column:args;type:text" json:"args,omitempty"`
	Tick       int64           `gorm:"column:tick" json:"tick"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notice) TableName() string { return "notices" }

// Body key convention: "<title>.body".
func BodyOf(titleKey string) string { return titleKey + ".body" }
