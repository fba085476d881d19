package mysql

import (
	"context"

	noticeDomain "outpost-credit/internal/domain/notice"

	"gorm.io/gorm"
)

type NoticeRepository struct{ db *gorm.DB }

func NewNoticeRepository(db *gorm.DB) *NoticeRepository { return &NoticeRepository{db: db} }

func (r *NoticeRepository) Create(ctx context.Context, n *noticeDomain.Notice) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NoticeRepository) ListByBorrowerID(ctx context.Context, borrowerID string, limit int) ([]noticeDomain.Notice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []noticeDomain.Notice
	res := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("id DESC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
