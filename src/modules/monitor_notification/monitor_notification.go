package monitor_notification

import (
	"context"

	"github.com/uptrace/bun"
)

// Model links a monitor to a notification channel.
type Model struct {
	bun.BaseModel `bun:"table:monitor_notifications,alias:mn"`

	ID             int64  `bun:"id,pk,autoincrement"`
	MonitorID      string `bun:"monitor_id"`
	NotificationID string `bun:"notification_id"`
}

type Service interface {
	ListChannelIDs(ctx context.Context, monitorID string) ([]string, error)
	Attach(ctx context.Context, monitorID, notificationID string) error
	Detach(ctx context.Context, monitorID, notificationID string) error
}

type service struct {
	db *bun.DB
}

func NewService(db *bun.DB) Service {
	return &service{db: db}
}

func (s *service) ListChannelIDs(ctx context.Context, monitorID string) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().Model((*Model)(nil)).
		Column("mn.notification_id").
		Where("mn.monitor_id = ?", monitorID).
		Scan(ctx, &ids)
	return ids, err
}

func (s *service) Attach(ctx context.Context, monitorID, notificationID string) error {
	m := &Model{MonitorID: monitorID, NotificationID: notificationID}
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *service) Detach(ctx context.Context, monitorID, notificationID string) error {
	_, err := s.db.NewDelete().Model((*Model)(nil)).
		Where("monitor_id = ?", monitorID).
		Where("notification_id = ?", notificationID).
		Exec(ctx)
	return err
}
