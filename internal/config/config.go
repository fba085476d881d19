package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"outpost-credit/internal/domain/contract"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	MySQLHost string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB   string `env:"MYSQL_DB"   envDefault:"outpost"`
	MySQLUser string `env:"MYSQL_USER" envDefault:"outpost"`
	MySQLPass string `env:"MYSQL_PASS" envDefault:"outpost"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB"   envDefault:"0"`

	IdempTTLSecs int    `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`
	LogLevel     string `env:"LOG_LEVEL"               envDefault:"info"`

	// One scheduler invocation covers this many simulated ticks.
	SchedulerUnitTicks int64         `env:"SCHEDULER_UNIT_TICKS" envDefault:"250"`
	SchedulerInterval  time.Duration `env:"SCHEDULER_INTERVAL"   envDefault:"1s"`
	SchedulerEnabled   bool          `env:"SCHEDULER_ENABLED"    envDefault:"true"`

	Terms TermsConfig `envPrefix:"DEBT_"`
}

// TermsConfig holds the default lending terms. Runtime overrides from the
// settings store are laid over these.
type TermsConfig struct {
	InterestRatePerDay           float64 `env:"INTEREST_RATE_PER_DAY"           envDefault:"0.02"`
	LatePenaltyRatePerDay        float64 `env:"LATE_PENALTY_RATE_PER_DAY"       envDefault:"0.01"`
	InterestIntervalDays         float64 `env:"INTEREST_INTERVAL_DAYS"          envDefault:"3"`
	InterestPaymentWindowHours   float64 `env:"INTEREST_PAYMENT_WINDOW_HOURS"   envDefault:"24"`
	GraceMissedPayments          int     `env:"GRACE_MISSED_PAYMENTS"           envDefault:"2"`
	CollectionsDeadlineHours     float64 `env:"COLLECTIONS_DEADLINE_HOURS"      envDefault:"48"`
	LoanTermDays                 int     `env:"LOAN_TERM_DAYS"                  envDefault:"30"`
	PrincipalReductionPerPayment float64 `env:"PRINCIPAL_REDUCTION_PER_PAYMENT" envDefault:"0.1"`
	MissedPaymentFee             int64   `env:"MISSED_PAYMENT_FEE"              envDefault:"50"`
	TributeMultiplier            float64 `env:"TRIBUTE_MULTIPLIER"              envDefault:"1.5"`
	RaidStrengthMultiplier       float64 `env:"RAID_STRENGTH_MULTIPLIER"        envDefault:"1"`
	MaxLoanAmount                int64   `env:"MAX_LOAN_AMOUNT"                 envDefault:"5000"`
}

func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.SchedulerUnitTicks <= 0 {
		return fmt.Errorf("SCHEDULER_UNIT_TICKS must be positive, got %d", c.SchedulerUnitTicks)
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.SchedulerInterval)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// DefaultTerms returns the clamped default terms.
func (c *Config) DefaultTerms() contract.Terms {
	t := c.Terms
	return contract.Terms{
		InterestRatePerDay:           t.InterestRatePerDay,
		LatePenaltyRatePerDay:        t.LatePenaltyRatePerDay,
		InterestIntervalDays:         t.InterestIntervalDays,
		InterestPaymentWindowHours:   t.InterestPaymentWindowHours,
		GraceMissedPayments:          t.GraceMissedPayments,
		CollectionsDeadlineHours:     t.CollectionsDeadlineHours,
		LoanTermDays:                 t.LoanTermDays,
		PrincipalReductionPerPayment: t.PrincipalReductionPerPayment,
		MissedPaymentFee:             t.MissedPaymentFee,
		TributeMultiplier:            t.TributeMultiplier,
		RaidStrengthMultiplier:       t.RaidStrengthMultiplier,
		MaxLoanAmount:                t.MaxLoanAmount,
	}.Clamp()
}
