package contract

// migration derives a newer field from older data. Rules run in order,
// once, after the whole record is decoded.
type migration struct {
	name  string
	apply func(c *Contract)
}

var migrations = []migration{
	{"received-from-legacy-start", func(c *Contract) {
		if c.LoanReceivedTick == 0 && c.LegacyStartTick > 0 {
			c.LoanReceivedTick = c.LegacyStartTick
		}
	}},
	{"original-from-principal", func(c *Contract) {
		if c.OriginalPrincipal == 0 && c.Principal > 0 {
			c.OriginalPrincipal = c.Principal
		}
	}},
	{"status-derived", func(c *Contract) {
		if c.Status.Valid() {
			return
		}
		if c.Principal > 0 {
			c.Status = StatusCurrent
		} else {
			c.Status = StatusNone
		}
	}},
	{"open-without-loan", func(c *Contract) {
		if c.HasOpenLoan() && c.Principal <= 0 && c.OriginalPrincipal <= 0 {
			c.Status = StatusNone
		}
	}},
	{"none-is-empty", func(c *Contract) {
		if c.Status == StatusNone {
			c.reset()
			c.Status = StatusNone
		}
	}},
	{"locked-out-is-settled", func(c *Contract) {
		if c.Status != StatusLockedOut {
			return
		}
		if c.LastLoanAmount <= 0 {
			c.LastLoanAmount = c.OriginalPrincipal
		}
		c.SettleByForce()
	}},
	{"last-payment-from-received", func(c *Contract) {
		if c.HasOpenLoan() && c.LastPaymentTick == 0 {
			c.LastPaymentTick = c.LoanReceivedTick
		}
	}},
	{"negative-counters", func(c *Contract) {
		if c.Principal < 0 {
			c.Principal = 0
		}
		if c.PaymentsMade < 0 {
			c.PaymentsMade = 0
		}
	}},
	{"stamp-version", func(c *Contract) {
		c.LegacyStartTick = 0
		c.SnapshotVersion = SnapshotVersion
	}},
}

// Migrate brings a contract decoded from any earlier layout into a
// structurally valid current-layout record. It never fails.
func Migrate(c *Contract) {
	if c == nil {
		return
	}
	for _, m := range migrations {
		m.apply(c)
	}
}
