package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/shared"

	"go.uber.org/zap"
)

// Service computes windowed availability and average ping from heartbeats.
// Results are cached per (monitor, window) and purged on every important
// beat for the monitor.
type Service interface {
	Uptime(ctx context.Context, monitorID string, windowHours int) (float64, error)
	AvgPing(ctx context.Context, monitorID string, windowHours int) (float64, error)
	InvalidateCache(monitorID string)
}

type service struct {
	heartbeatSvc heartbeat.Service
	logger       *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]float64 // "monitorID/windowHours" -> ratio
}

func NewService(heartbeatSvc heartbeat.Service, logger *zap.SugaredLogger) Service {
	return &service{
		heartbeatSvc: heartbeatSvc,
		logger:       logger.With("service", "[stats]"),
		cache:        make(map[string]float64),
	}
}

func cacheKey(monitorID string, windowHours int) string {
	return fmt.Sprintf("%s/%d", monitorID, windowHours)
}

func (s *service) Uptime(ctx context.Context, monitorID string, windowHours int) (float64, error) {
	key := cacheKey(monitorID, windowHours)
	s.mu.Lock()
	if ratio, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return ratio, nil
	}
	s.mu.Unlock()

	t0 := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	beats, err := s.heartbeatSvc.FindSince(ctx, monitorID, t0)
	if err != nil {
		return 0, err
	}

	ratio := computeUptime(beats, t0)

	s.mu.Lock()
	s.cache[key] = ratio
	s.mu.Unlock()
	return ratio, nil
}

// computeUptime trims each beat's duration to the window start so that a
// long-lived first beat does not leak availability from before the window.
// MAINTENANCE counts as UP.
func computeUptime(beats []*heartbeat.Model, t0 time.Time) float64 {
	var totalSec, upSec int64
	for _, hb := range beats {
		if !hb.Time.After(t0) {
			continue
		}
		d := int64(hb.Duration)
		if since := int64(hb.Time.Sub(t0).Seconds()); d > since {
			d = since
		}
		totalSec += d
		if hb.Status == shared.MonitorStatusUp || hb.Status == shared.MonitorStatusMaintenance {
			upSec += d
		}
	}

	if totalSec > 0 {
		return float64(upSec) / float64(totalSec)
	}

	// No measurable duration in the window: fall back to the latest status.
	if len(beats) > 0 && beats[len(beats)-1].Status == shared.MonitorStatusUp {
		return 1
	}
	return 0
}

func (s *service) AvgPing(ctx context.Context, monitorID string, windowHours int) (float64, error) {
	t0 := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	beats, err := s.heartbeatSvc.FindSince(ctx, monitorID, t0)
	if err != nil {
		return 0, err
	}

	var sum, n float64
	for _, hb := range beats {
		if hb.Ping == nil {
			continue
		}
		sum += float64(*hb.Ping)
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

func (s *service) InvalidateCache(monitorID string) {
	prefix := monitorID + "/"
	s.mu.Lock()
	for k := range s.cache {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()
}
