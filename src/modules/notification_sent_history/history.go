package notification_sent_history

import (
	"context"

	"github.com/uptrace/bun"
)

// HistoryTypeCertificate marks cert-expiry notification rows.
const HistoryTypeCertificate = "certificate"

// Model records that a notification of a given kind was already sent for a
// monitor at a threshold, so it is not repeated.
type Model struct {
	bun.BaseModel `bun:"table:notification_sent_history,alias:nsh"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Type      string `bun:"type"`
	MonitorID string `bun:"monitor_id"`
	Days      int    `bun:"days"`
}

type Service interface {
	// Exists reports whether a row of the given type with days <= daysLE is
	// already recorded for the monitor.
	Exists(ctx context.Context, typ, monitorID string, daysLE int) (bool, error)
	Record(ctx context.Context, typ, monitorID string, days int) error
	DeleteByTypeAndMonitor(ctx context.Context, typ, monitorID string) error
}

type service struct {
	db *bun.DB
}

func NewService(db *bun.DB) Service {
	return &service{db: db}
}

func (s *service) Exists(ctx context.Context, typ, monitorID string, daysLE int) (bool, error) {
	return s.db.NewSelect().Model((*Model)(nil)).
		Where("nsh.type = ?", typ).
		Where("nsh.monitor_id = ?", monitorID).
		Where("nsh.days <= ?", daysLE).
		Exists(ctx)
}

func (s *service) Record(ctx context.Context, typ, monitorID string, days int) error {
	m := &Model{Type: typ, MonitorID: monitorID, Days: days}
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *service) DeleteByTypeAndMonitor(ctx context.Context, typ, monitorID string) error {
	_, err := s.db.NewDelete().Model((*Model)(nil)).
		Where("type = ?", typ).
		Where("monitor_id = ?", monitorID).
		Exec(ctx)
	return err
}
