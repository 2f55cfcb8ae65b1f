package heartbeat

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, hb *Model) error
	FindLatestByMonitorID(ctx context.Context, monitorID string) (*Model, error)
	FindSince(ctx context.Context, monitorID string, since time.Time) ([]*Model, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type sqlRepository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, hb *Model) error {
	_, err := r.db.NewInsert().Model(hb).Exec(ctx)
	return err
}

func (r *sqlRepository) FindLatestByMonitorID(ctx context.Context, monitorID string) (*Model, error) {
	hb := new(Model)
	err := r.db.NewSelect().Model(hb).
		Where("hb.monitor_id = ?", monitorID).
		Order("hb.time DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return hb, nil
}

func (r *sqlRepository) FindSince(ctx context.Context, monitorID string, since time.Time) ([]*Model, error) {
	var hbs []*Model
	err := r.db.NewSelect().Model(&hbs).
		Where("hb.monitor_id = ?", monitorID).
		Where("hb.time > ?", since).
		Order("hb.time ASC").
		Scan(ctx)
	return hbs, err
}

func (r *sqlRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*Model)(nil)).
		Where("time < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
