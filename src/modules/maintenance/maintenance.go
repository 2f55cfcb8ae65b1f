package maintenance

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Model is a maintenance window attached to one monitor. A monitor is under
// maintenance while any of its windows (or any ancestor's) is active.
type Model struct {
	bun.BaseModel `bun:"table:maintenances,alias:mt"`

	ID        string    `bun:"id,pk"`
	MonitorID string    `bun:"monitor_id"`
	Title     string    `bun:"title"`
	Active    bool      `bun:"active"`
	StartTime time.Time `bun:"start_time"`
	EndTime   time.Time `bun:"end_time"`
}

type Service interface {
	ListByMonitorID(ctx context.Context, monitorID string) ([]*Model, error)
	IsUnderMaintenance(m *Model, now time.Time) bool
}

type service struct {
	db     *bun.DB
	logger *zap.SugaredLogger
}

func NewService(db *bun.DB, logger *zap.SugaredLogger) Service {
	return &service{db: db, logger: logger.With("service", "[maintenance]")}
}

func (s *service) ListByMonitorID(ctx context.Context, monitorID string) ([]*Model, error) {
	var ms []*Model
	err := s.db.NewSelect().Model(&ms).
		Where("mt.monitor_id = ?", monitorID).
		Where("mt.active = ?", true).
		Scan(ctx)
	return ms, err
}

func (s *service) IsUnderMaintenance(m *Model, now time.Time) bool {
	if !m.Active {
		return false
	}
	return !now.Before(m.StartTime) && now.Before(m.EndTime)
}
