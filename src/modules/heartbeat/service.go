package heartbeat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, hb *Model) (*Model, error)
	FindLatestByMonitorID(ctx context.Context, monitorID string) (*Model, error)
	FindSince(ctx context.Context, monitorID string, since time.Time) ([]*Model, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

func NewService(repo Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("service", "[heartbeat]"),
	}
}

func (s *service) Create(ctx context.Context, hb *Model) (*Model, error) {
	if hb.ID == "" {
		hb.ID = uuid.NewString()
	}
	if hb.Time.IsZero() {
		hb.Time = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, hb); err != nil {
		return nil, err
	}
	return hb, nil
}

func (s *service) FindLatestByMonitorID(ctx context.Context, monitorID string) (*Model, error) {
	return s.repo.FindLatestByMonitorID(ctx, monitorID)
}

func (s *service) FindSince(ctx context.Context, monitorID string, since time.Time) ([]*Model, error) {
	return s.repo.FindSince(ctx, monitorID, since)
}

func (s *service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, cutoff)
}
