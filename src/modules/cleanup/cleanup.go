package cleanup

import (
	"context"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/setting"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Service prunes heartbeats older than the configured retention period.
type Service struct {
	heartbeatSvc heartbeat.Service
	settingSvc   setting.Service
	cron         *cron.Cron
	logger       *zap.SugaredLogger
}

func NewService(heartbeatSvc heartbeat.Service, settingSvc setting.Service, logger *zap.SugaredLogger) *Service {
	return &Service{
		heartbeatSvc: heartbeatSvc,
		settingSvc:   settingSvc,
		cron:         cron.New(),
		logger:       logger.With("service", "[cleanup]"),
	}
}

// Start schedules the nightly retention job.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc("14 3 * * *", s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	days := s.settingSvc.GetInt(ctx, setting.KeyKeepDataPeriodDays, setting.DefaultKeepDataPeriodDays)
	if days <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	n, err := s.heartbeatSvc.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Errorw("retention sweep", "error", err)
		return
	}
	s.logger.Infow("retention sweep", "deleted", n, "older_than_days", days)
}
