package contractmock

import (
	"context"

	domain "outpost-credit/internal/domain/contract"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies contract.Repository.
// Reads default to context.Canceled, writes to a no-op.
type Repo struct {
	GetByBorrowerIDFn      func(ctx context.Context, borrowerID string) (*domain.Contract, error)
	GetOrCreateForUpdateFn func(ctx context.Context, borrowerID string) (*domain.Contract, error)
	ListOpenBorrowerIDsFn  func(ctx context.Context) ([]string, error)
	SaveFn                 func(ctx context.Context, c *domain.Contract) error
}

func (m *Repo) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.Contract, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOrCreateForUpdate(ctx context.Context, borrowerID string) (*domain.Contract, error) {
	if m.GetOrCreateForUpdateFn != nil {
		return m.GetOrCreateForUpdateFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOpenBorrowerIDs(ctx context.Context) ([]string, error) {
	if m.ListOpenBorrowerIDsFn != nil {
		return m.ListOpenBorrowerIDsFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, c *domain.Contract) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}
