// Package settings keeps runtime overrides of the lending terms in Redis,
// laid over the configured defaults. Values can change between scheduler
// steps; every read returns a fresh clamped snapshot.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/port"

	"github.com/redis/go-redis/v9"
)

const keyTerms = "debt:terms"

var fields = map[string]func(t *contract.Terms, v float64){
	"interest_rate_per_day":           func(t *contract.Terms, v float64) { t.InterestRatePerDay = v },
	"late_penalty_rate_per_day":       func(t *contract.Terms, v float64) { t.LatePenaltyRatePerDay = v },
	"interest_interval_days":          func(t *contract.Terms, v float64) { t.InterestIntervalDays = v },
	"interest_payment_window_hours":   func(t *contract.Terms, v float64) { t.InterestPaymentWindowHours = v },
	"grace_missed_payments":           func(t *contract.Terms, v float64) { t.GraceMissedPayments = int(v) },
	"collections_deadline_hours":      func(t *contract.Terms, v float64) { t.CollectionsDeadlineHours = v },
	"loan_term_days":                  func(t *contract.Terms, v float64) { t.LoanTermDays = int(v) },
	"principal_reduction_per_payment": func(t *contract.Terms, v float64) { t.PrincipalReductionPerPayment = v },
	"missed_payment_fee":              func(t *contract.Terms, v float64) { t.MissedPaymentFee = int64(v) },
	"tribute_multiplier":              func(t *contract.Terms, v float64) { t.TributeMultiplier = v },
	"raid_strength_multiplier":        func(t *contract.Terms, v float64) { t.RaidStrengthMultiplier = v },
	"max_loan_amount":                 func(t *contract.Terms, v float64) { t.MaxLoanAmount = int64(v) },
}

// FieldNames lists the keys accepted by Update, sorted.
func FieldNames() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Store struct {
	rdb      *redis.Client
	defaults contract.Terms
}

var _ port.TermsSource = (*Store)(nil)

func NewStore(rdb *redis.Client, defaults contract.Terms) *Store {
	return &Store{rdb: rdb, defaults: defaults}
}

func (s *Store) Terms(ctx context.Context) (contract.Terms, error) {
	t := s.defaults
	raw, err := s.rdb.HGetAll(ctx, keyTerms).Result()
	if err != nil {
		return contract.Terms{}, fmt.Errorf("read terms overrides: %w", err)
	}
	for k, v := range raw {
		set, ok := fields[k]
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("ignoring malformed terms override", "field", k, "value", v)
			continue
		}
		set(&t, n)
	}
	return t.Clamp(), nil
}

// Update stores overrides. Unknown keys reject the whole patch.
func (s *Store) Update(ctx context.Context, patch map[string]float64) (contract.Terms, error) {
	values := make(map[string]any, len(patch))
	for k, v := range patch {
		if _, ok := fields[k]; !ok {
			return contract.Terms{}, fmt.Errorf("unknown terms field %q", k)
		}
		values[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if len(values) > 0 {
		if err := s.rdb.HSet(ctx, keyTerms, values).Err(); err != nil {
			return contract.Terms{}, fmt.Errorf("write terms overrides: %w", err)
		}
	}
	return s.Terms(ctx)
}

// Reset drops every override.
func (s *Store) Reset(ctx context.Context) error {
	return s.rdb.Del(ctx, keyTerms).Err()
}
