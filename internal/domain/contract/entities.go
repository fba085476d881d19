package contract

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("contract not found")
)

// Simulated time units. One tick is the smallest step of the host clock.
const (
	TicksPerHour int64 = 2500
	TicksPerDay  int64 = 24 * TicksPerHour
)

type Status string

const (
	StatusNone        Status = "none"
	StatusCurrent     Status = "current"
	StatusDelinquent  Status = "delinquent"
	StatusCollections Status = "collections"
	StatusLockedOut   Status = "locked_out"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusCurrent, StatusDelinquent, StatusCollections, StatusLockedOut:
		return true
	}
	return false
}

// SnapshotVersion is the layout written by this build. Older rows and
// snapshots are brought forward by Migrate.
const SnapshotVersion = 3

// Table: contracts. Exactly one row per borrower.
type Contract struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	BorrowerID string `gorm:"size:32;uniqueIndex:ux_contracts_borrower_id" json:"borrower_id"`

	Principal         int64 `gorm:"column:principal" json:"principal"`
	OriginalPrincipal int64 `gorm:"column:original_principal" json:"original_principal"`
	PaymentsMade      int64 `gorm:"column:payments_made" json:"payments_made"`

	LoanReceivedTick int64 `gorm:"column:loan_received_tick" json:"loan_received_tick"`
	// Written by layout v1 only; read during migration.
	LegacyStartTick int64 `gorm:"column:loan_start_tick" json:"loan_start_tick,omitempty"`
	LoanTermDays    int   `gorm:"column:loan_term_days" json:"loan_term_days"`

	NextInterestDueTick    int64 `gorm:"column:next_interest_due_tick" json:"next_interest_due_tick"`
	InterestDemandSent     bool  `gorm:"column:interest_demand_sent" json:"interest_demand_sent"`
	PaymentDeadlineTick    int64 `gorm:"column:payment_deadline_tick" json:"payment_deadline_tick"`
	LastPaymentTick        int64 `gorm:"column:last_payment_tick" json:"last_payment_tick"`
	FirstMissedPaymentTick int64 `gorm:"column:first_missed_payment_tick" json:"first_missed_payment_tick"`

	Status         Status `gorm:"size:16;index:idx_contracts_status;default:'none'" json:"status"`
	LastLoanAmount int64  `gorm:"column:last_loan_amount" json:"last_loan_amount"`

	CollectionsRaidActive     bool   `gorm:"column:collections_raid_active" json:"collections_raid_active"`
	CollectionsRaidStartTick  int64  `gorm:"column:collections_raid_start_tick" json:"collections_raid_start_tick"`
	CollectionsRaidLocationID string `gorm:"size:64;column:collections_raid_location_id" json:"collections_raid_location_id"`
	RaidLastPolledTick        int64  `gorm:"column:raid_last_polled_tick" json:"raid_last_polled_tick"`

	SnapshotVersion int       `gorm:"column:snapshot_version" json:"snapshot_version"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Contract) TableName() string { return "contracts" }

// AfterFind brings rows written by older layouts forward before any caller
// sees them.
func (c *Contract) AfterFind(tx *gorm.DB) error {
	Migrate(c)
	return nil
}

// New returns an empty contract for a borrower who has never borrowed.
func New(borrowerID string) *Contract {
	return &Contract{BorrowerID: borrowerID, Status: StatusNone, SnapshotVersion: SnapshotVersion}
}

// HasOpenLoan reports whether the borrower currently owes anything.
func (c *Contract) HasOpenLoan() bool {
	switch c.Status {
	case StatusCurrent, StatusDelinquent, StatusCollections:
		return true
	}
	return false
}
