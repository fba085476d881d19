package noticemock

import (
	"context"
	"sync"

	domain "outpost-credit/internal/domain/notice"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies notice.Repository. When
// CreateFn is nil, created notices are kept in memory and ListByBorrowerID
// serves them newest first.
type Repo struct {
	CreateFn           func(ctx context.Context, n *domain.Notice) error
	ListByBorrowerIDFn func(ctx context.Context, borrowerID string, limit int) ([]domain.Notice, error)

	mu      sync.Mutex
	created []domain.Notice
}

func (m *Repo) Create(ctx context.Context, n *domain.Notice) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	m.mu.Lock()
	m.created = append(m.created, *n)
	m.mu.Unlock()
	return nil
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string, limit int) ([]domain.Notice, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notice
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].BorrowerID != borrowerID {
			continue
		}
		out = append(out, m.created[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Created returns every notice stored through the default Create.
func (m *Repo) Created() []domain.Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notice(nil), m.created...)
}
