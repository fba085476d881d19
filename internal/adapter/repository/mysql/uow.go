package mysql

import (
	"context"

	"outpost-credit/internal/domain/contract"
	"outpost-credit/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Contracts: &ContractRepository{db: tx},
		Notices:   &NoticeRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinBorrowerTx(ctx context.Context, borrowerID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the contract row up-front so the scheduler and borrower
		// commands never interleave on one borrower
		c, err := r.Contracts.GetOrCreateForUpdate(ctx, borrowerID)
		if err != nil {
			return err
		}
		if err := fn(r, c); err != nil {
			return err
		}
		return r.Contracts.Save(ctx, c)
	})
}
