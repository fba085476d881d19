// Package portmock holds in-memory and function-backed doubles for the
// collaborator ports. Function fields win when set; otherwise each mock
// falls back to its in-memory state.
package portmock

import (
	"context"
	"errors"
	"sync"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/port"
)

var (
	_ port.Purse       = (*Purse)(nil)
	_ port.Treasury    = (*Treasury)(nil)
	_ port.Notifier    = (*Notifier)(nil)
	_ port.Enforcer    = (*Enforcer)(nil)
	_ port.Directory   = (*Directory)(nil)
	_ port.TermsSource = (*TermsSource)(nil)
	_ port.Clock       = (*Clock)(nil)
)

var errUnimplemented = errors.New("portmock: method not implemented")

// ---- currency ----

type Purse struct {
	Name        string
	Balance     int64
	TryRemoveFn func(ctx context.Context, amount int64) (bool, error)
	AddFn       func(ctx context.Context, amount int64) error

	mu sync.Mutex
}

func (p *Purse) Scope() string { return p.Name }

func (p *Purse) CountAvailable(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Balance, nil
}

func (p *Purse) TryRemove(ctx context.Context, amount int64) (bool, error) {
	if p.TryRemoveFn != nil {
		return p.TryRemoveFn(ctx, amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount < 0 || p.Balance < amount {
		return false, nil
	}
	p.Balance -= amount
	return true, nil
}

func (p *Purse) Add(ctx context.Context, amount int64) error {
	if p.AddFn != nil {
		return p.AddFn(ctx, amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Balance += amount
	return nil
}

// Treasury serves Purses by borrower; unknown borrowers get port.ErrNoPurse.
type Treasury struct {
	Purses     map[string]*Purse
	PurseForFn func(ctx context.Context, borrowerID string) (port.Purse, error)
}

func (t *Treasury) PurseFor(ctx context.Context, borrowerID string) (port.Purse, error) {
	if t.PurseForFn != nil {
		return t.PurseForFn(ctx, borrowerID)
	}
	p, ok := t.Purses[borrowerID]
	if !ok {
		return nil, port.ErrNoPurse
	}
	return p, nil
}

// ---- notification ----

type Notifier struct {
	mu   sync.Mutex
	sent []port.Message
}

func (n *Notifier) Send(_ context.Context, m port.Message) {
	n.mu.Lock()
	n.sent = append(n.sent, m)
	n.mu.Unlock()
}

func (n *Notifier) Sent() []port.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]port.Message(nil), n.sent...)
}

// Titles lists the title keys sent so far, in order.
func (n *Notifier) Titles() []string {
	var out []string
	for _, m := range n.Sent() {
		out = append(out, m.TitleKey)
	}
	return out
}

// ---- enforcement ----

type Enforcer struct {
	RequestExpeditionFn     func(ctx context.Context, borrowerID string, strength float64, target string) (bool, error)
	IsExpeditionConcludedFn func(ctx context.Context, locationID string) (bool, error)

	Requests int
	Polls    int
}

func (e *Enforcer) RequestExpedition(ctx context.Context, borrowerID string, strength float64, target string) (bool, error) {
	e.Requests++
	if e.RequestExpeditionFn != nil {
		return e.RequestExpeditionFn(ctx, borrowerID, strength, target)
	}
	return false, errUnimplemented
}

func (e *Enforcer) IsExpeditionConcluded(ctx context.Context, locationID string) (bool, error) {
	e.Polls++
	if e.IsExpeditionConcludedFn != nil {
		return e.IsExpeditionConcludedFn(ctx, locationID)
	}
	return false, errUnimplemented
}

// ---- directory, terms, clock ----

// Directory answers from static fields; empty values mean unknown.
type Directory struct {
	Outpost string
	Homes   map[string]string
}

func (d *Directory) CreditorOutpost(context.Context) (string, error) {
	if d.Outpost == "" {
		return "", port.ErrUnknownLocation
	}
	return d.Outpost, nil
}

func (d *Directory) HomeOf(_ context.Context, borrowerID string) (string, error) {
	loc, ok := d.Homes[borrowerID]
	if !ok || loc == "" {
		return "", port.ErrUnknownLocation
	}
	return loc, nil
}

type TermsSource struct {
	T   contract.Terms
	Err error
}

func (s *TermsSource) Terms(context.Context) (contract.Terms, error) {
	if s.Err != nil {
		return contract.Terms{}, s.Err
	}
	return s.T, nil
}

type Clock struct {
	mu   sync.Mutex
	Tick int64
}

func (c *Clock) Now(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Tick, nil
}

func (c *Clock) Advance(_ context.Context, ticks int64) (int64, error) {
	if ticks < 0 {
		return 0, errors.New("portmock: negative advance")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tick += ticks
	return c.Tick, nil
}
