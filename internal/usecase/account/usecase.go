// Package account is the borrower-facing side of the debt engine: taking a
// loan, paying it down, paying tribute, and reading the contract back.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"
	"outpost-credit/internal/domain/port"
	"outpost-credit/internal/domain/uow"
	"outpost-credit/internal/infrastructure/metrics"
)

const (
	CmdRequestLoan = "request_loan"
	CmdPayInterest = "pay_interest"
	CmdPayFull     = "pay_full"
	CmdSendTribute = "send_tribute"
	CmdImport      = "import_snapshot"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

type Deps struct {
	UoW       uow.UnitOfWork
	Terms     port.TermsSource
	Treasury  port.Treasury
	Directory port.Directory
	Notifier  port.Notifier
	Clock     port.Clock
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

type Usecase struct {
	uow       uow.UnitOfWork
	terms     port.TermsSource
	treasury  port.Treasury
	directory port.Directory
	notifier  port.Notifier
	clock     port.Clock
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewUsecase(d Deps) *Usecase {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{
		uow:       d.UoW,
		terms:     d.Terms,
		treasury:  d.Treasury,
		directory: d.Directory,
		notifier:  d.Notifier,
		clock:     d.Clock,
		metrics:   d.Metrics,
		log:       log.With("component", "account"),
	}
}

// snapshot reads the clock and terms every command starts from.
func (u *Usecase) snapshot(ctx context.Context) (contract.Terms, int64, error) {
	t, err := u.terms.Terms(ctx)
	if err != nil {
		return contract.Terms{}, 0, fmt.Errorf("load terms: %w", err)
	}
	now, err := u.clock.Now(ctx)
	if err != nil {
		return contract.Terms{}, 0, fmt.Errorf("read clock: %w", err)
	}
	return t, now, nil
}

func (u *Usecase) observe(cmd, borrowerID string, err error) {
	var rej *contract.Rejection
	switch {
	case err == nil:
		u.metrics.Command(cmd, "ok")
	case errors.As(err, &rej):
		u.metrics.Command(cmd, rej.Reason)
		u.log.Info("command rejected", "command", cmd, "borrower_id", borrowerID, "reason", rej.Reason)
	default:
		u.metrics.Command(cmd, "error")
		u.log.Error("command failed", "command", cmd, "borrower_id", borrowerID, "err", err)
	}
}

// RequestLoan delivers amount to the borrower's purse and opens the
// contract. Funds are delivered first; if the contract cannot be opened or
// saved afterwards, the delivery is taken back.
func (u *Usecase) RequestLoan(ctx context.Context, borrowerID string, amount int64) (res *Receipt, err error) {
	defer func() { u.observe(CmdRequestLoan, borrowerID, err) }()

	t, now, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		box       port.Outbox
		delivered port.Purse
	)
	err = u.uow.WithinBorrowerTx(ctx, borrowerID, func(_ uow.Repos, c *contract.Contract) error {
		switch {
		case c.Status == contract.StatusLockedOut:
			return contract.ErrLockedOut
		case c.Status != contract.StatusNone:
			return contract.ErrAlreadyBorrowed
		case amount <= 0:
			return contract.ErrInvalidAmount
		case t.MaxLoanAmount > 0 && amount > t.MaxLoanAmount:
			return contract.ErrExceedsMaxLoan
		}

		if _, err := u.directory.CreditorOutpost(ctx); err != nil {
			if errors.Is(err, port.ErrUnknownLocation) {
				return contract.ErrCreditorUnavailable
			}
			return fmt.Errorf("locate creditor: %w", err)
		}
		p, err := u.treasury.PurseFor(ctx, borrowerID)
		if err != nil {
			if errors.Is(err, port.ErrNoPurse) {
				return contract.ErrCreditorUnavailable
			}
			return fmt.Errorf("locate delivery purse: %w", err)
		}
		if err := p.Add(ctx, amount); err != nil {
			return fmt.Errorf("deliver loan: %w", err)
		}
		delivered = p

		if err := c.StartLoan(t, amount, now); err != nil {
			return err
		}
		box.Send(ctx, port.Message{
			BorrowerID: borrowerID,
			TitleKey:   notice.KeyLoanGranted,
			Severity:   string(notice.SeverityPositive),
			Tick:       now,
			Args: map[string]any{
				"amount":         amount,
				"interest_rate":  t.InterestRatePerDay,
				"interval_days":  t.InterestIntervalDays,
				"loan_term_days": t.LoanTermDays,
			},
		})
		res = &Receipt{Command: CmdRequestLoan, Amount: amount, Purse: p.Scope(), View: viewOf(c, t, now)}
		return nil
	})
	if err != nil {
		if delivered != nil {
			u.takeBack(ctx, borrowerID, delivered, amount)
		}
		return nil, err
	}
	box.Flush(ctx, u.notifier)
	return res, nil
}

func (u *Usecase) takeBack(ctx context.Context, borrowerID string, p port.Purse, amount int64) {
	ok, err := p.TryRemove(ctx, amount)
	if err != nil || !ok {
		u.log.Error("loan delivery could not be reversed",
			"borrower_id", borrowerID, "purse", p.Scope(), "amount", amount, "removed", ok, "err", err)
	}
}

func (u *Usecase) refund(ctx context.Context, borrowerID string, p port.Purse, amount int64) {
	if err := p.Add(ctx, amount); err != nil {
		u.log.Error("payment could not be refunded",
			"borrower_id", borrowerID, "purse", p.Scope(), "amount", amount, "err", err)
	}
}

// collect removes amount from the borrower's purse or rejects with
// ErrInsufficientFunds. Nothing is removed on rejection.
func (u *Usecase) collect(ctx context.Context, borrowerID string, amount int64) (port.Purse, error) {
	p, err := u.treasury.PurseFor(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, port.ErrNoPurse) {
			return nil, contract.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("locate purse: %w", err)
	}
	have, err := p.CountAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("count funds: %w", err)
	}
	if have < amount {
		return nil, contract.ErrInsufficientFunds
	}
	ok, err := p.TryRemove(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("remove funds: %w", err)
	}
	if !ok {
		return nil, contract.ErrInsufficientFunds
	}
	return p, nil
}

// pay runs a money-moving command: fn validates and returns the amount
// due, the purse is charged, then apply mutates the contract. A failed
// commit refunds the charge.
func (u *Usecase) pay(
	ctx context.Context, cmd, borrowerID string,
	due func(c *contract.Contract, t contract.Terms, now int64) (int64, error),
	apply func(c *contract.Contract, t contract.Terms, amount, now int64, box *port.Outbox) bool,
) (*Receipt, error) {
	t, now, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		box     port.Outbox
		charged port.Purse
		paid    int64
		res     *Receipt
	)
	err = u.uow.WithinBorrowerTx(ctx, borrowerID, func(_ uow.Repos, c *contract.Contract) error {
		amount, err := due(c, t, now)
		if err != nil {
			return err
		}
		scope := ""
		if amount > 0 {
			p, err := u.collect(ctx, borrowerID, amount)
			if err != nil {
				return err
			}
			charged, paid, scope = p, amount, p.Scope()
		}
		settled := apply(c, t, amount, now, &box)
		res = &Receipt{Command: cmd, Amount: amount, Purse: scope, Settled: settled, View: viewOf(c, t, now)}
		return nil
	})
	if err != nil {
		if charged != nil {
			u.refund(ctx, borrowerID, charged, paid)
		}
		return nil, err
	}
	box.Flush(ctx, u.notifier)
	return res, nil
}

func message(borrowerID, key string, sev notice.Severity, now int64, args map[string]any) port.Message {
	return port.Message{BorrowerID: borrowerID, TitleKey: key, Severity: string(sev), Tick: now, Args: args}
}

// PayInterest pays the current installment: accrued interest, penalty and
// fees. Not accepted once the contract is in collections.
func (u *Usecase) PayInterest(ctx context.Context, borrowerID string) (res *Receipt, err error) {
	defer func() { u.observe(CmdPayInterest, borrowerID, err) }()
	return u.pay(ctx, CmdPayInterest, borrowerID,
		func(c *contract.Contract, t contract.Terms, now int64) (int64, error) {
			switch {
			case !c.HasOpenLoan():
				return 0, contract.ErrNoActiveContract
			case c.Status == contract.StatusCollections:
				return 0, contract.ErrInCollections
			}
			due := c.CurrentPaymentDue(t, now)
			if due <= 0 {
				return 0, contract.ErrNothingDue
			}
			return due, nil
		},
		func(c *contract.Contract, t contract.Terms, amount, now int64, box *port.Outbox) bool {
			settled := c.PayInterest(t, amount, now)
			key := notice.KeyInterestPaid
			if settled {
				key = notice.KeyLoanRepaid
			}
			box.Send(ctx, message(borrowerID, key, notice.SeverityPositive, now, map[string]any{
				"amount":    amount,
				"principal": c.Principal,
			}))
			return settled
		})
}

// PayFull pays off everything owed, the only payment accepted in
// collections.
func (u *Usecase) PayFull(ctx context.Context, borrowerID string) (res *Receipt, err error) {
	defer func() { u.observe(CmdPayFull, borrowerID, err) }()
	return u.pay(ctx, CmdPayFull, borrowerID,
		func(c *contract.Contract, t contract.Terms, now int64) (int64, error) {
			if !c.HasOpenLoan() {
				return 0, contract.ErrNoActiveContract
			}
			return c.TotalOwed(t, now), nil
		},
		func(c *contract.Contract, t contract.Terms, amount, now int64, box *port.Outbox) bool {
			settled := c.PayInFull(t, amount, now)
			if settled {
				box.Send(ctx, message(borrowerID, notice.KeyLoanRepaid, notice.SeverityPositive, now, map[string]any{
					"amount": amount,
				}))
			}
			return settled
		})
}

// SendTribute pays the tribute that lifts a lock-out.
func (u *Usecase) SendTribute(ctx context.Context, borrowerID string) (res *Receipt, err error) {
	defer func() { u.observe(CmdSendTribute, borrowerID, err) }()
	return u.pay(ctx, CmdSendTribute, borrowerID,
		func(c *contract.Contract, t contract.Terms, _ int64) (int64, error) {
			if c.Status != contract.StatusLockedOut {
				return 0, contract.ErrNotLockedOut
			}
			return c.RequiredTribute(t), nil
		},
		func(c *contract.Contract, _ contract.Terms, amount, now int64, box *port.Outbox) bool {
			c.PayTribute()
			box.Send(ctx, message(borrowerID, notice.KeyTributeAccepted, notice.SeverityPositive, now, map[string]any{
				"amount": amount,
			}))
			return true
		})
}

// Get never fails for an unknown borrower; it reports an empty contract.
func (u *Usecase) Get(ctx context.Context, borrowerID string) (*ContractView, error) {
	t, now, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c, err := u.load(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	v := viewOf(c, t, now)
	return &v, nil
}

func (u *Usecase) load(ctx context.Context, borrowerID string) (*contract.Contract, error) {
	var c *contract.Contract
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		c, err = r.Contracts.GetByBorrowerID(ctx, borrowerID)
		if errors.Is(err, contract.ErrNotFound) {
			c, err = contract.New(borrowerID), nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	return c, nil
}

func (u *Usecase) Notices(ctx context.Context, borrowerID string, limit int) ([]NoticeDTO, error) {
	var rows []notice.Notice
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		rows, err = r.Notices.ListByBorrowerID(ctx, borrowerID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	out := make([]NoticeDTO, 0, len(rows))
	for _, n := range rows {
		dto := NoticeDTO{
			NoticeID: n.NoticeID,
			TitleKey: n.TitleKey,
			BodyKey:  n.BodyKey,
			Severity: n.Severity,
			Tick:     n.Tick,
		}
		if len(n.Args) > 0 {
			if err := json.Unmarshal(n.Args, &dto.Args); err != nil {
				u.log.Warn("notice args unreadable", "notice_id", n.NoticeID, "err", err)
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

// ExportSnapshot returns the borrower's contract as a save-game field set.
func (u *Usecase) ExportSnapshot(ctx context.Context, borrowerID string) ([]byte, error) {
	c, err := u.load(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return contract.MarshalSnapshot(c)
}

// ImportSnapshot replaces the borrower's contract with a snapshot written
// by any layout version. Refused while an expedition is out, since the
// world state it depends on cannot be rolled back.
func (u *Usecase) ImportSnapshot(ctx context.Context, borrowerID string, b []byte) (view *ContractView, err error) {
	defer func() { u.observe(CmdImport, borrowerID, err) }()

	t, now, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	in, err := contract.UnmarshalSnapshot(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	err = u.uow.WithinBorrowerTx(ctx, borrowerID, func(_ uow.Repos, c *contract.Contract) error {
		if c.CollectionsRaidActive {
			return contract.ErrRaidInProgress
		}
		id, created := c.ID, c.CreatedAt
		*c = *in
		c.ID, c.CreatedAt, c.BorrowerID = id, created, borrowerID
		v := viewOf(c, t, now)
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
