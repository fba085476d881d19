package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"outpost-credit/internal/domain/port"
)

// Runner advances the simulation clock one scheduler unit at a time and
// runs a Step after each advance. Advances are serialized so steps always
// see increasing ticks.
type Runner struct {
	sched    *Scheduler
	clock    port.Clock
	unit     int64
	interval time.Duration
	log      *slog.Logger

	mu sync.Mutex
}

func NewRunner(s *Scheduler, clock port.Clock, unitTicks int64, interval time.Duration) *Runner {
	if unitTicks <= 0 {
		unitTicks = 250
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{sched: s, clock: clock, unit: unitTicks, interval: interval, log: s.log}
}

func (r *Runner) UnitTicks() int64 { return r.unit }

// Advance runs n scheduler units synchronously and returns the report of
// the last one.
func (r *Runner) Advance(ctx context.Context, n int) (StepReport, error) {
	if n <= 0 {
		return StepReport{}, fmt.Errorf("units must be positive, got %d", n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var last StepReport
	for i := 0; i < n; i++ {
		now, err := r.clock.Advance(ctx, r.unit)
		if err != nil {
			return last, fmt.Errorf("advance clock: %w", err)
		}
		last, err = r.sched.Step(ctx, now)
		if err != nil {
			return last, err
		}
	}
	return last, nil
}

// Run advances one unit per interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	tk := time.NewTicker(r.interval)
	defer tk.Stop()
	r.log.Info("scheduler runner started", "unit_ticks", r.unit, "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduler runner stopped")
			return nil
		case <-tk.C:
			rep, err := r.Advance(ctx, 1)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				r.log.Error("scheduler step failed", "err", err)
				continue
			}
			if rep.Changed > 0 || rep.Failed > 0 {
				r.log.Info("scheduler step", "now", rep.Now, "evaluated", rep.Evaluated, "changed", rep.Changed, "failed", rep.Failed)
			}
		}
	}
}
