// Package notify delivers borrower notifications by persisting them as
// notices and mirroring them to the structured log.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"outpost-credit/internal/domain/notice"
	"outpost-credit/internal/domain/port"
	"outpost-credit/pkg/id"
)

type Notifier struct {
	repo notice.Repository
	log  *slog.Logger
}

var _ port.Notifier = (*Notifier)(nil)

func New(repo notice.Repository, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{repo: repo, log: log}
}

// Send never fails the caller; storage errors are logged and dropped.
func (n *Notifier) Send(ctx context.Context, m port.Message) {
	rec := &notice.Notice{
		NoticeID:   id.NewID32(),
		BorrowerID: m.BorrowerID,
		TitleKey:   m.TitleKey,
		BodyKey:    notice.BodyOf(m.TitleKey),
		Severity:   severityOf(m.Severity),
		Tick:       m.Tick,
	}
	if len(m.Args) > 0 {
		b, err := json.Marshal(m.Args)
		if err != nil {
			n.log.Warn("notice args not encodable", "title_key", m.TitleKey, "err", err)
		} else {
			rec.Args = b
		}
	}

	n.log.Info("borrower notice",
		"notice_id", rec.NoticeID, "borrower_id", rec.BorrowerID,
		"title_key", rec.TitleKey, "severity", rec.Severity, "tick", rec.Tick)

	if err := n.repo.Create(ctx, rec); err != nil {
		n.log.Error("store notice failed", "notice_id", rec.NoticeID, "borrower_id", rec.BorrowerID, "err", err)
	}
}

func severityOf(s string) notice.Severity {
	switch v := notice.Severity(s); v {
	case notice.SeverityPositive, notice.SeverityNegative, notice.SeverityThreat:
		return v
	}
	return notice.SeverityNeutral
}
