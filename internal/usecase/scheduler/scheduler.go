// Package scheduler drives every open contract through its lifecycle once
// per simulated time unit: payment demands, missed deadlines, collections
// and enforcement.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"
	"outpost-credit/internal/domain/port"
	"outpost-credit/internal/domain/uow"
	"outpost-credit/internal/infrastructure/metrics"
)

// Transition names what a single evaluation did to a contract.
type Transition string

const (
	TransitionNone          Transition = "none"
	TransitionRaidWaiting   Transition = "raid_waiting"
	TransitionSettled       Transition = "settled_by_force"
	TransitionTermExpired   Transition = "term_expired"
	TransitionGraceExceeded Transition = "grace_exceeded"
	TransitionDemandSent    Transition = "demand_sent"
	TransitionMissed        Transition = "deadline_missed"
	TransitionRaidLaunched  Transition = "raid_launched"
)

// Changed reports whether the transition mutated the contract.
func (t Transition) Changed() bool {
	return t != TransitionNone && t != TransitionRaidWaiting
}

const (
	// Expeditions are left alone this long after launch before the first poll.
	RaidPollCooldownTicks = 2 * contract.TicksPerHour
	RaidPollIntervalTicks = contract.TicksPerHour

	MinRaidStrength = 200.0
)

type Deps struct {
	UoW       uow.UnitOfWork
	Terms     port.TermsSource
	Notifier  port.Notifier
	Enforcer  port.Enforcer
	Directory port.Directory
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

type Scheduler struct {
	uow       uow.UnitOfWork
	terms     port.TermsSource
	notifier  port.Notifier
	enforcer  port.Enforcer
	directory port.Directory
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func New(d Deps) *Scheduler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		uow:       d.UoW,
		terms:     d.Terms,
		notifier:  d.Notifier,
		enforcer:  d.Enforcer,
		directory: d.Directory,
		metrics:   d.Metrics,
		log:       log.With("component", "scheduler"),
	}
}

// Evaluate applies at most one lifecycle transition to c at tick now and
// sends its notification straight to the notifier.
func (s *Scheduler) Evaluate(ctx context.Context, c *contract.Contract, t contract.Terms, now int64) Transition {
	return s.evaluate(ctx, c, t, now, s.notifier)
}

func (s *Scheduler) evaluate(ctx context.Context, c *contract.Contract, t contract.Terms, now int64, out port.Notifier) Transition {
	tr := s.decide(ctx, c, t, now, out)
	if tr.Changed() {
		s.metrics.Transition(string(tr))
		s.log.Debug("contract transition", "borrower_id", c.BorrowerID, "transition", tr, "status", c.Status, "tick", now)
	}
	return tr
}

func (s *Scheduler) decide(ctx context.Context, c *contract.Contract, t contract.Terms, now int64, out port.Notifier) Transition {
	if !c.HasOpenLoan() && c.Status != contract.StatusLockedOut {
		return TransitionNone
	}

	if c.CollectionsRaidActive {
		return s.pollRaid(ctx, c, t, now, out)
	}

	if c.IsLoanTermExpired(now) && c.Status != contract.StatusCollections {
		c.TriggerCollections(t, now)
		send(ctx, out, c, notice.KeyTermExpired, notice.SeverityNegative, now, map[string]any{
			"total_owed":     c.TotalOwed(t, now),
			"deadline_hours": t.CollectionsDeadlineHours,
		})
		return TransitionTermExpired
	}

	if c.HasOpenLoan() && c.Status != contract.StatusCollections &&
		c.MissedPaymentPeriods(t, now) > int64(t.GraceMissedPayments) {
		missed := c.MissedPaymentPeriods(t, now)
		c.TriggerCollections(t, now)
		send(ctx, out, c, notice.KeyGraceExceeded, notice.SeverityNegative, now, map[string]any{
			"missed_periods": missed,
			"total_owed":     c.TotalOwed(t, now),
			"deadline_hours": t.CollectionsDeadlineHours,
		})
		return TransitionGraceExceeded
	}

	switch c.Status {
	case contract.StatusCurrent, contract.StatusDelinquent:
		if !c.InterestDemandSent && now >= c.NextInterestDueTick {
			c.SendDemand(t, now)
			send(ctx, out, c, notice.KeyPaymentDue, notice.SeverityNeutral, now, map[string]any{
				"amount":       c.CurrentPaymentDue(t, now),
				"window_hours": t.InterestPaymentWindowHours,
			})
			return TransitionDemandSent
		}
		if c.InterestDemandSent && now >= c.PaymentDeadlineTick {
			c.RecordMissedDeadline(t, now)
			a := c.Accrue(t, now)
			send(ctx, out, c, notice.KeyPaymentMissed, notice.SeverityNegative, now, map[string]any{
				"fees":           a.MissedFees,
				"penalty":        int64(math.Ceil(a.PenaltyInterest)),
				"missed_periods": a.MissedPaymentPeriods,
				"grace":          t.GraceMissedPayments,
			})
			return TransitionMissed
		}

	case contract.StatusCollections:
		if now >= c.PaymentDeadlineTick {
			return s.launchRaid(ctx, c, t, now, out)
		}
	}
	return TransitionNone
}

func (s *Scheduler) pollRaid(ctx context.Context, c *contract.Contract, t contract.Terms, now int64, out port.Notifier) Transition {
	if now < c.CollectionsRaidStartTick+RaidPollCooldownTicks {
		return TransitionRaidWaiting
	}
	if c.RaidLastPolledTick > 0 && now < c.RaidLastPolledTick+RaidPollIntervalTicks {
		return TransitionRaidWaiting
	}
	c.RaidLastPolledTick = now

	done, err := s.enforcer.IsExpeditionConcluded(ctx, c.CollectionsRaidLocationID)
	if err != nil {
		s.log.Warn("expedition poll failed", "borrower_id", c.BorrowerID, "location_id", c.CollectionsRaidLocationID, "err", err)
		return TransitionRaidWaiting
	}
	if !done {
		return TransitionRaidWaiting
	}
	s.settle(ctx, c, t, now, out, "expedition concluded")
	return TransitionSettled
}

func (s *Scheduler) launchRaid(ctx context.Context, c *contract.Contract, t contract.Terms, now int64, out port.Notifier) Transition {
	strength := math.Max(MinRaidStrength, float64(c.TotalOwed(t, now))*t.RaidStrengthMultiplier)

	target, err := s.directory.HomeOf(ctx, c.BorrowerID)
	if err != nil {
		s.settle(ctx, c, t, now, out, fmt.Sprintf("no target: %v", err))
		return TransitionSettled
	}
	ok, err := s.enforcer.RequestExpedition(ctx, c.BorrowerID, strength, target)
	switch {
	case err != nil:
		s.settle(ctx, c, t, now, out, fmt.Sprintf("expedition request failed: %v", err))
		return TransitionSettled
	case !ok:
		s.settle(ctx, c, t, now, out, "expedition refused")
		return TransitionSettled
	}

	c.CollectionsRaidActive = true
	c.CollectionsRaidStartTick = now
	c.CollectionsRaidLocationID = target
	c.RaidLastPolledTick = 0
	send(ctx, out, c, notice.KeyRaidLaunched, notice.SeverityThreat, now, map[string]any{
		"location_id": target,
		"strength":    strength,
	})
	return TransitionRaidLaunched
}

// settle is the only exit from collections that does not involve the
// borrower paying; it always succeeds.
func (s *Scheduler) settle(ctx context.Context, c *contract.Contract, t contract.Terms, now int64, out port.Notifier, why string) {
	s.log.Info("debt settled by force", "borrower_id", c.BorrowerID, "reason", why, "tick", now)
	c.SettleByForce()
	send(ctx, out, c, notice.KeyDebtSettled, notice.SeverityThreat, now, map[string]any{
		"tribute": c.RequiredTribute(t),
	})
}

func send(ctx context.Context, out port.Notifier, c *contract.Contract, key string, sev notice.Severity, now int64, args map[string]any) {
	if out == nil {
		return
	}
	out.Send(ctx, port.Message{
		BorrowerID: c.BorrowerID,
		TitleKey:   key,
		Severity:   string(sev),
		Tick:       now,
		Args:       args,
	})
}

// StepReport summarizes one pass over the open contracts.
type StepReport struct {
	Now       int64 `json:"now"`
	Evaluated int   `json:"evaluated"`
	Changed   int   `json:"changed"`
	Failed    int   `json:"failed"`
}

// Step evaluates every open contract at tick now, each under its own row
// lock. Terms are read once per step. A failing borrower is logged and
// skipped; only failing to read terms or list contracts aborts the step.
func (s *Scheduler) Step(ctx context.Context, now int64) (StepReport, error) {
	started := time.Now()
	rep := StepReport{Now: now}
	defer func() { s.metrics.StepDone(started, rep.Failed) }()

	t, err := s.terms.Terms(ctx)
	if err != nil {
		return rep, fmt.Errorf("load terms: %w", err)
	}

	var ids []string
	if err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		ids, err = r.Contracts.ListOpenBorrowerIDs(ctx)
		return err
	}); err != nil {
		return rep, fmt.Errorf("list open contracts: %w", err)
	}

	for _, borrowerID := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		var box port.Outbox
		var tr Transition
		err := s.uow.WithinBorrowerTx(ctx, borrowerID, func(_ uow.Repos, c *contract.Contract) error {
			tr = s.evaluate(ctx, c, t, now, &box)
			return nil
		})
		rep.Evaluated++
		if err != nil {
			box.Discard()
			rep.Failed++
			if !errors.Is(err, context.Canceled) {
				s.log.Error("evaluate contract failed", "borrower_id", borrowerID, "tick", now, "err", err)
			}
			continue
		}
		if tr.Changed() {
			rep.Changed++
		}
		box.Flush(ctx, s.notifier)
	}
	return rep, nil
}
