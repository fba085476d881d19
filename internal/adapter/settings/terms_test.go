package settings

import (
	"context"
	"testing"

	"outpost-credit/internal/domain/contract"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func defaults() contract.Terms {
	return contract.Terms{
		InterestRatePerDay:         0.02,
		LatePenaltyRatePerDay:      0.01,
		InterestIntervalDays:       3,
		InterestPaymentWindowHours: 24,
		GraceMissedPayments:        2,
		CollectionsDeadlineHours:   48,
		LoanTermDays:               30,
		MissedPaymentFee:           50,
		TributeMultiplier:          1.5,
		RaidStrengthMultiplier:     1,
	}
}

func newStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewStore(rdb, defaults())
}

func TestTerms_DefaultsWithoutOverrides(t *testing.T) {
	_, s := newStore(t)
	got, err := s.Terms(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaults().Clamp(), got)
}

func TestUpdate_OverridesAndPersists(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	got, err := s.Update(ctx, map[string]float64{
		"interest_rate_per_day": 0.05,
		"grace_missed_payments": 4,
		"max_loan_amount":       1000,
	})
	require.NoError(t, err)
	require.Equal(t, 0.05, got.InterestRatePerDay)
	require.Equal(t, 4, got.GraceMissedPayments)
	require.EqualValues(t, 1000, got.MaxLoanAmount)
	require.Equal(t, 0.01, got.LatePenaltyRatePerDay)

	again, err := s.Terms(ctx)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestUpdate_ClampsOutOfRange(t *testing.T) {
	_, s := newStore(t)
	got, err := s.Update(context.Background(), map[string]float64{
		"interest_rate_per_day":  7,
		"interest_interval_days": 0,
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, got.InterestRatePerDay)
	require.Equal(t, 0.25, got.InterestIntervalDays)
}

func TestUpdate_UnknownFieldRejectsPatch(t *testing.T) {
	mr, s := newStore(t)
	_, err := s.Update(context.Background(), map[string]float64{
		"interest_rate_per_day": 0.05,
		"bogus":                 1,
	})
	require.Error(t, err)
	require.False(t, mr.Exists(keyTerms))
}

func TestTerms_IgnoresMalformedOverride(t *testing.T) {
	mr, s := newStore(t)
	mr.HSet(keyTerms, "interest_rate_per_day", "lots", "tribute_multiplier", "2")

	got, err := s.Terms(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.02, got.InterestRatePerDay)
	require.Equal(t, 2.0, got.TributeMultiplier)
}

func TestReset_RestoresDefaults(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	_, err := s.Update(ctx, map[string]float64{"missed_payment_fee": 10})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	got, err := s.Terms(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 50, got.MissedPaymentFee)
}

func TestFieldNames_Sorted(t *testing.T) {
	names := FieldNames()
	require.Len(t, names, len(fields))
	require.IsNonDecreasing(t, names)
}
