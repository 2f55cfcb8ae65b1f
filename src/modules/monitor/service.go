package monitor

import (
	"context"
	"fmt"

	"vigilo/src/modules/events"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Service interface {
	FindByID(ctx context.Context, id string) (*Model, error)
	FindByPushToken(ctx context.Context, token string) (*Model, error)
	FindActive(ctx context.Context) ([]*Model, error)
	FindChildren(ctx context.Context, parentID string) ([]*Model, error)
	FindParent(ctx context.Context, id string) (*Model, error)
	Create(ctx context.Context, m *Model) error
	Update(ctx context.Context, m *Model) error
	Delete(ctx context.Context, id string) error
	UpdateDNSLastResult(ctx context.Context, id string, result string) error
}

type service struct {
	repo        Repository
	validate    *validator.Validate
	bus         *events.EventBus
	minInterval int
	maxInterval int
	logger      *zap.SugaredLogger
}

func NewService(repo Repository, minInterval, maxInterval int, bus *events.EventBus, logger *zap.SugaredLogger) Service {
	return &service{
		repo:        repo,
		validate:    validator.New(),
		bus:         bus,
		minInterval: minInterval,
		maxInterval: maxInterval,
		logger:      logger.With("service", "[monitor]"),
	}
}

func (s *service) checkConfig(m *Model) error {
	if err := s.validate.Struct(m); err != nil {
		return fmt.Errorf("invalid monitor: %w", err)
	}
	if m.Type != "push" && (m.Interval < s.minInterval || m.Interval > s.maxInterval) {
		return fmt.Errorf("interval must be between %d and %d seconds", s.minInterval, s.maxInterval)
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id string) (*Model, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) FindByPushToken(ctx context.Context, token string) (*Model, error) {
	return s.repo.FindByPushToken(ctx, token)
}

func (s *service) FindActive(ctx context.Context) ([]*Model, error) {
	return s.repo.FindActive(ctx)
}

func (s *service) FindChildren(ctx context.Context, parentID string) ([]*Model, error) {
	return s.repo.FindChildren(ctx, parentID)
}

func (s *service) FindParent(ctx context.Context, id string) (*Model, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.ParentID == "" {
		return nil, nil
	}
	return s.repo.FindByID(ctx, m.ParentID)
}

func (s *service) Create(ctx context.Context, m *Model) error {
	if err := s.checkConfig(m); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.MonitorCreated, Payload: m})
	return nil
}

func (s *service) Update(ctx context.Context, m *Model) error {
	if err := s.checkConfig(m); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.MonitorUpdated, Payload: m})
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if m != nil {
		s.bus.Publish(events.Event{Type: events.MonitorDeleted, Payload: m})
	}
	return nil
}

func (s *service) UpdateDNSLastResult(ctx context.Context, id string, result string) error {
	return s.repo.UpdateDNSLastResult(ctx, id, result)
}
