package uow

import (
	"context"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/notice"
)

type Repos struct {
	Contracts contract.Repository
	Notices   notice.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock (or create) the borrower's contract first, then pass it in; the
	// contract is saved when fn returns nil
	WithinBorrowerTx(ctx context.Context, borrowerID string, fn func(r Repos, c *contract.Contract) error) error
}
