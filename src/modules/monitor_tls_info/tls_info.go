package monitor_tls_info

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// Model stores the latest captured TLS certificate chain for a monitor as
// JSON, replaced in place on every successful handshake.
type Model struct {
	bun.BaseModel `bun:"table:monitor_tls_info,alias:ti"`

	MonitorID string `bun:"monitor_id,pk"`
	InfoJSON  string `bun:"info_json"`
}

type Service interface {
	Upsert(ctx context.Context, monitorID, infoJSON string) error
	FindByMonitorID(ctx context.Context, monitorID string) (*Model, error)
	Delete(ctx context.Context, monitorID string) error
}

type service struct {
	db *bun.DB
}

func NewService(db *bun.DB) Service {
	return &service{db: db}
}

func (s *service) Upsert(ctx context.Context, monitorID, infoJSON string) error {
	m := &Model{MonitorID: monitorID, InfoJSON: infoJSON}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (monitor_id) DO UPDATE").
		Set("info_json = EXCLUDED.info_json").
		Exec(ctx)
	return err
}

func (s *service) FindByMonitorID(ctx context.Context, monitorID string) (*Model, error) {
	m := new(Model)
	err := s.db.NewSelect().Model(m).Where("ti.monitor_id = ?", monitorID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Delete(ctx context.Context, monitorID string) error {
	_, err := s.db.NewDelete().Model((*Model)(nil)).
		Where("monitor_id = ?", monitorID).
		Exec(ctx)
	return err
}
