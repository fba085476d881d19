package mysql

import (
	"context"
	"errors"
	"fmt"

	contractDomain "outpost-credit/internal/domain/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository struct{ db *gorm.DB }

func NewContractRepository(db *gorm.DB) *ContractRepository { return &ContractRepository{db: db} }

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *ContractRepository) Tx(ctx context.Context, fn func(repo contractDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ContractRepository{db: tx})
	})
}

func (r *ContractRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	err := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contractDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContractRepository) GetOrCreateForUpdate(ctx context.Context, borrowerID string) (*contractDomain.Contract, error) {
	lock := func() (*contractDomain.Contract, error) {
		var out contractDomain.Contract
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("borrower_id = ?", borrowerID).
			First(&out).Error
		return &out, err
	}

	c, err := lock()
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// first touch: insert the empty contract, tolerating a concurrent insert
	fresh := contractDomain.New(borrowerID)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "borrower_id"}}, DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return lock()
}

func (r *ContractRepository) ListOpenBorrowerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&contractDomain.Contract{}).
		Where("status IN ? OR collections_raid_active = ?", []contractDomain.Status{
			contractDomain.StatusCurrent, contractDomain.StatusDelinquent, contractDomain.StatusCollections,
		}, true).
		Order("id ASC").
		Pluck("borrower_id", &ids).Error
	return ids, err
}

func (r *ContractRepository) Save(ctx context.Context, c *contractDomain.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}
