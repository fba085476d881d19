package mysql

import (
	"context"
	"encoding/json"
	"testing"

	noticeDomain "outpost-credit/internal/domain/notice"
	"outpost-credit/internal/testutil/sqlitedb"
	"outpost-credit/pkg/id"
)

func makeNotice(borrowerID, key string, tick int64) *noticeDomain.Notice {
	return &noticeDomain.Notice{
		NoticeID:   id.NewID32(),
		BorrowerID: borrowerID,
		TitleKey:   key,
		BodyKey:    noticeDomain.BodyOf(key),
		Severity:   noticeDomain.SeverityNeutral,
		Args:       json.RawMessage(`{"amount":60}`),
		Tick:       tick,
	}
}

func TestNotice_CreateAndList(t *testing.T) {
	repo := NewNoticeRepository(sqlitedb.Open(t))
	ctx := context.Background()
	borrower, other := id.NewID32(), id.NewID32()

	for i, key := range []string{noticeDomain.KeyLoanGranted, noticeDomain.KeyPaymentDue, noticeDomain.KeyPaymentMissed} {
		if err := repo.Create(ctx, makeNotice(borrower, key, int64(i))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, makeNotice(other, noticeDomain.KeyLoanGranted, 9)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListByBorrowerID(ctx, borrower, 2)
	if err != nil {
		t.Fatalf("ListByBorrowerID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TitleKey != noticeDomain.KeyPaymentMissed || got[1].TitleKey != noticeDomain.KeyPaymentDue {
		t.Errorf("not newest first: %s, %s", got[0].TitleKey, got[1].TitleKey)
	}
	if string(got[0].Args) != `{"amount":60}` {
		t.Errorf("args = %s", got[0].Args)
	}
}

func TestNotice_ListEmpty(t *testing.T) {
	repo := NewNoticeRepository(sqlitedb.Open(t))
	got, err := repo.ListByBorrowerID(context.Background(), id.NewID32(), 0)
	if err != nil {
		t.Fatalf("ListByBorrowerID: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected none, got %d", len(got))
	}
}
