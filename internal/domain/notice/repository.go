package notice

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notice) error

	// Newest first.
	ListByBorrowerID(ctx context.Context, borrowerID string, limit int) ([]Notice, error)
}
