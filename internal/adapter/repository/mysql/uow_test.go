package mysql

import (
	"context"
	"errors"
	"testing"

	"outpost-credit/internal/domain/contract"
	noticeDomain "outpost-credit/internal/domain/notice"
	"outpost-credit/internal/domain/uow"
	"outpost-credit/internal/testutil/sqlitedb"
	"outpost-credit/pkg/id"
)

func TestGormUoW_WithinBorrowerTx_CommitSavesContract(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	borrower := id.NewID32()

	err := guow.WithinBorrowerTx(ctx, borrower, func(r uow.Repos, c *contract.Contract) error {
		if c.Status != contract.StatusNone {
			t.Fatalf("fresh contract status = %s", c.Status)
		}
		if err := c.StartLoan(testTerms(), 900, 10); err != nil {
			return err
		}
		return r.Notices.Create(ctx, makeNotice(borrower, noticeDomain.KeyLoanGranted, 10))
	})
	if err != nil {
		t.Fatalf("WithinBorrowerTx: %v", err)
	}

	got, err := NewContractRepository(db).GetByBorrowerID(ctx, borrower)
	if err != nil {
		t.Fatalf("contract not visible after commit: %v", err)
	}
	if got.Status != contract.StatusCurrent || got.Principal != 900 {
		t.Fatalf("contract not saved: %+v", got)
	}
	notices, _ := NewNoticeRepository(db).ListByBorrowerID(ctx, borrower, 10)
	if len(notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notices))
	}
}

func TestGormUoW_WithinBorrowerTx_RollbackLeavesNothing(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	borrower := id.NewID32()

	err := guow.WithinBorrowerTx(ctx, borrower, func(r uow.Repos, c *contract.Contract) error {
		_ = c.StartLoan(testTerms(), 900, 10)
		if err := r.Notices.Create(ctx, makeNotice(borrower, noticeDomain.KeyLoanGranted, 10)); err != nil {
			return err
		}
		return contract.ErrCreditorUnavailable
	})
	if !errors.Is(err, contract.ErrCreditorUnavailable) {
		t.Fatalf("expected rejection, got %v", err)
	}

	if _, err := NewContractRepository(db).GetByBorrowerID(ctx, borrower); !errors.Is(err, contract.ErrNotFound) {
		t.Fatalf("expected no contract after rollback, got %v", err)
	}
	notices, _ := NewNoticeRepository(db).ListByBorrowerID(ctx, borrower, 10)
	if len(notices) != 0 {
		t.Fatalf("expected no notices after rollback, got %d", len(notices))
	}
}

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	borrower := id.NewID32()

	err := NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		return r.Notices.Create(ctx, makeNotice(borrower, noticeDomain.KeyPaymentDue, 1))
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	notices, _ := NewNoticeRepository(db).ListByBorrowerID(ctx, borrower, 10)
	if len(notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notices))
	}
}
