package contract

import "context"

type Repository interface {
	// GetByBorrowerID returns ErrNotFound when the borrower has no row yet.
	GetByBorrowerID(ctx context.Context, borrowerID string) (*Contract, error)

	// Lock the borrower's row for the rest of the transaction, creating an
	// empty contract first if none exists.
	GetOrCreateForUpdate(ctx context.Context, borrowerID string) (*Contract, error)

	// Borrowers the scheduler has to look at: an open loan or a raid still out.
	ListOpenBorrowerIDs(ctx context.Context) ([]string, error)

	Save(ctx context.Context, c *Contract) error
}
