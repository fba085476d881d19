// Package port declares the collaborators the debt engine calls out to.
// Everything here is synchronous; implementations live under adapter/.
package port

import (
	"context"
	"errors"

	"outpost-credit/internal/domain/contract"
)

var (
	ErrUnknownLocation = errors.New("location not found")
	ErrNoPurse         = errors.New("no purse reachable for borrower")
)

// Purse holds currency at one location or in one traveling party.
type Purse interface {
	Scope() string
	CountAvailable(ctx context.Context) (int64, error)
	// TryRemove removes exactly amount or nothing.
	TryRemove(ctx context.Context, amount int64) (bool, error)
	Add(ctx context.Context, amount int64) error
}

// Treasury picks the purse a borrower trades from: a party present at the
// creditor outpost if there is one, the home reserves otherwise.
type Treasury interface {
	PurseFor(ctx context.Context, borrowerID string) (Purse, error)
}

type Message struct {
	BorrowerID string
	TitleKey   string
	Severity   string
	Tick       int64
	Args       map[string]any
}

// Notifier is fire-and-forget; delivery failures stay inside the adapter.
type Notifier interface {
	Send(ctx context.Context, m Message)
}

type Enforcer interface {
	RequestExpedition(ctx context.Context, borrowerID string, strength float64, targetLocationID string) (bool, error)
	// IsExpeditionConcluded is true once no hostiles remain at the target or
	// the target no longer exists.
	IsExpeditionConcluded(ctx context.Context, locationID string) (bool, error)
}

type Directory interface {
	CreditorOutpost(ctx context.Context) (string, error)
	HomeOf(ctx context.Context, borrowerID string) (string, error)
}

// TermsSource is read at the start of every scheduler step and command.
type TermsSource interface {
	Terms(ctx context.Context) (contract.Terms, error)
}

type Clock interface {
	Now(ctx context.Context) (int64, error)
	Advance(ctx context.Context, ticks int64) (int64, error)
}
