package monitor

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Model, error)
	FindByPushToken(ctx context.Context, token string) (*Model, error)
	FindActive(ctx context.Context) ([]*Model, error)
	FindChildren(ctx context.Context, parentID string) ([]*Model, error)
	Create(ctx context.Context, m *Model) error
	Update(ctx context.Context, m *Model) error
	Delete(ctx context.Context, id string) error
	UpdateDNSLastResult(ctx context.Context, id string, result string) error
}

type sqlRepository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) FindByID(ctx context.Context, id string) (*Model, error) {
	m := new(Model)
	err := r.db.NewSelect().Model(m).Where("m.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *sqlRepository) FindByPushToken(ctx context.Context, token string) (*Model, error) {
	m := new(Model)
	err := r.db.NewSelect().Model(m).Where("m.push_token = ?", token).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *sqlRepository) FindActive(ctx context.Context) ([]*Model, error) {
	var ms []*Model
	err := r.db.NewSelect().Model(&ms).Where("m.active = ?", true).Scan(ctx)
	return ms, err
}

func (r *sqlRepository) FindChildren(ctx context.Context, parentID string) ([]*Model, error) {
	var ms []*Model
	err := r.db.NewSelect().Model(&ms).Where("m.parent_id = ?", parentID).Scan(ctx)
	return ms, err
}

func (r *sqlRepository) Create(ctx context.Context, m *Model) error {
	_, err := r.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (r *sqlRepository) Update(ctx context.Context, m *Model) error {
	_, err := r.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	return err
}

func (r *sqlRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*Model)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *sqlRepository) UpdateDNSLastResult(ctx context.Context, id string, result string) error {
	_, err := r.db.NewUpdate().Model((*Model)(nil)).
		Set("dns_last_result = ?", result).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
