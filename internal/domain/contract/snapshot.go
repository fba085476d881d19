package contract

import (
	"encoding/json"
	"fmt"
)

// MarshalSnapshot writes the contract as a flat JSON field set.
func MarshalSnapshot(c *Contract) ([]byte, error) {
	out := *c
	out.SnapshotVersion = SnapshotVersion
	return json.Marshal(&out)
}

// UnmarshalSnapshot reads a snapshot written by any layout version.
// Missing or malformed fields fall back to zero values; only input that is
// not a JSON object at all is an error.
func UnmarshalSnapshot(b []byte) (*Contract, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("snapshot is not a field set: %w", err)
	}
	c := &Contract{}
	ints := map[string]*int64{
		"principal":                   &c.Principal,
		"original_principal":          &c.OriginalPrincipal,
		"payments_made":               &c.PaymentsMade,
		"loan_received_tick":          &c.LoanReceivedTick,
		"loan_start_tick":             &c.LegacyStartTick,
		"next_interest_due_tick":      &c.NextInterestDueTick,
		"payment_deadline_tick":       &c.PaymentDeadlineTick,
		"last_payment_tick":           &c.LastPaymentTick,
		"first_missed_payment_tick":   &c.FirstMissedPaymentTick,
		"last_loan_amount":            &c.LastLoanAmount,
		"collections_raid_start_tick": &c.CollectionsRaidStartTick,
		"raid_last_polled_tick":       &c.RaidLastPolledTick,
	}
	for k, dst := range ints {
		*dst = decodeInt(raw[k])
	}
	c.LoanTermDays = int(decodeInt(raw["loan_term_days"]))
	c.SnapshotVersion = int(decodeInt(raw["snapshot_version"]))
	c.InterestDemandSent = decodeBool(raw["interest_demand_sent"])
	c.CollectionsRaidActive = decodeBool(raw["collections_raid_active"])
	c.BorrowerID = decodeString(raw["borrower_id"])
	c.Status = Status(decodeString(raw["status"]))
	c.CollectionsRaidLocationID = decodeString(raw["collections_raid_location_id"])

	Migrate(c)
	return c, nil
}

func decodeInt(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var f float64
	// out-of-range floats have no int64 value; treat them as corrupt
	if err := json.Unmarshal(raw, &f); err == nil && f >= -(1<<63) && f < 1<<63 {
		return int64(f)
	}
	return 0
}

func decodeBool(raw json.RawMessage) bool {
	var v bool
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}
	return v
}

func decodeString(raw json.RawMessage) string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}
