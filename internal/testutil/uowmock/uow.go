package uowmock

import (
	"context"
	"errors"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinBorrowerTxFn func(ctx context.Context, borrowerID string, fn func(r uow.Repos, c *contract.Contract) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinBorrowerTx(fn func(context.Context, string, func(uow.Repos, *contract.Contract) error) error) *UoW {
	m.WithinBorrowerTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passthrough runs every tx body directly against repos. Borrower txs get
// the contract from contracts (created on first use), and it is only
// replaced there when the body returns nil, mimicking a rollback.
func Passthrough(repos uow.Repos, contracts map[string]*contract.Contract) *UoW {
	return New().
		WithWithinTx(func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		}).
		WithWithinBorrowerTx(func(_ context.Context, borrowerID string, fn func(uow.Repos, *contract.Contract) error) error {
			c, ok := contracts[borrowerID]
			if !ok {
				c = contract.New(borrowerID)
			}
			work := *c
			if err := fn(repos, &work); err != nil {
				return err
			}
			contracts[borrowerID] = &work
			return nil
		})
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinBorrowerTx(ctx context.Context, borrowerID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	if m.WithinBorrowerTxFn != nil {
		return m.WithinBorrowerTxFn(ctx, borrowerID, fn)
	}
	return errUnimplemented
}
