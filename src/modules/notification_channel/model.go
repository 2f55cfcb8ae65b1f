package notification_channel

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// Model is a configured notification provider instance. Config carries the
// provider-specific JSON (webhook URL, template, ...).
type Model struct {
	bun.BaseModel `bun:"table:notification_channels,alias:nc"`

	ID     string `bun:"id,pk"`
	Name   string `bun:"name"`
	Type   string `bun:"type"`
	Config string `bun:"config"`
	Active bool   `bun:"active"`
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*Model, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Model, error)
}

type sqlRepository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) FindByID(ctx context.Context, id string) (*Model, error) {
	m := new(Model)
	err := r.db.NewSelect().Model(m).Where("nc.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *sqlRepository) FindByIDs(ctx context.Context, ids []string) ([]*Model, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []*Model
	err := r.db.NewSelect().Model(&ms).
		Where("nc.id IN (?)", bun.In(ids)).
		Where("nc.active = ?", true).
		Scan(ctx)
	return ms, err
}
