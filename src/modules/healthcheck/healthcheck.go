package healthcheck

import (
	"context"
	"sync"
	"time"

	"vigilo/src/modules/certificate"
	"vigilo/src/modules/events"
	"vigilo/src/modules/healthcheck/executor"
	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/maintenance"
	"vigilo/src/modules/metrics"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/monitor_tls_info"
	"vigilo/src/modules/notification_channel"
	"vigilo/src/modules/stats"
	"vigilo/src/modules/websocket"

	"go.uber.org/zap"
)

// maintenanceMaxDepth caps the ancestor walk against parent-id cycles.
const maintenanceMaxDepth = 32

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns one beat loop per active monitor. Starting is idempotent,
// stopping cancels the in-flight probe and waits for the loop to drain.
type Supervisor struct {
	monitorSvc     monitor.Service
	heartbeatSvc   heartbeat.Service
	maintenanceSvc maintenance.Service
	statsSvc       stats.Service
	certSvc        certificate.Service
	tlsInfoSvc     monitor_tls_info.Service
	registry       *executor.Registry
	dispatcher     *notification_channel.Dispatcher
	preCmd         *notification_channel.PreCommandRunner
	ws             *websocket.Server
	metrics        *metrics.Sink
	bus            *events.EventBus
	demoMode       bool
	logger         *zap.SugaredLogger

	mu    sync.Mutex
	tasks map[string]*task
}

func NewSupervisor(
	monitorSvc monitor.Service,
	heartbeatSvc heartbeat.Service,
	maintenanceSvc maintenance.Service,
	statsSvc stats.Service,
	certSvc certificate.Service,
	tlsInfoSvc monitor_tls_info.Service,
	registry *executor.Registry,
	dispatcher *notification_channel.Dispatcher,
	preCmd *notification_channel.PreCommandRunner,
	ws *websocket.Server,
	sink *metrics.Sink,
	bus *events.EventBus,
	demoMode bool,
	logger *zap.SugaredLogger,
) *Supervisor {
	s := &Supervisor{
		monitorSvc:     monitorSvc,
		heartbeatSvc:   heartbeatSvc,
		maintenanceSvc: maintenanceSvc,
		statsSvc:       statsSvc,
		certSvc:        certSvc,
		tlsInfoSvc:     tlsInfoSvc,
		registry:       registry,
		dispatcher:     dispatcher,
		preCmd:         preCmd,
		ws:             ws,
		metrics:        sink,
		bus:            bus,
		demoMode:       demoMode,
		logger:         logger.With("service", "[healthcheck]"),
		tasks:          make(map[string]*task),
	}
	s.subscribe()
	return s
}

// subscribe keeps running loops in sync with monitor lifecycle events.
func (s *Supervisor) subscribe() {
	s.bus.Subscribe(events.MonitorCreated, func(ev events.Event) {
		if m, ok := ev.Payload.(*monitor.Model); ok && m.Active {
			s.StartMonitor(context.Background(), m)
		}
	})
	s.bus.Subscribe(events.MonitorUpdated, func(ev events.Event) {
		m, ok := ev.Payload.(*monitor.Model)
		if !ok {
			return
		}
		if m.Active {
			s.Reload(context.Background(), m)
		} else {
			s.StopMonitor(m.ID)
		}
	})
	s.bus.Subscribe(events.MonitorDeleted, func(ev events.Event) {
		m, ok := ev.Payload.(*monitor.Model)
		if !ok {
			return
		}
		s.StopMonitor(m.ID)
		s.metrics.Remove(m)
	})
}

// StartAll boots a loop for every active monitor.
func (s *Supervisor) StartAll(ctx context.Context) error {
	monitors, err := s.monitorSvc.FindActive(ctx)
	if err != nil {
		return err
	}
	for _, m := range monitors {
		s.StartMonitor(ctx, m)
	}
	s.logger.Infof("started %d monitors", len(monitors))
	return nil
}

// StartMonitor is a no-op when the monitor already runs.
func (s *Supervisor) StartMonitor(ctx context.Context, m *monitor.Model) {
	s.mu.Lock()
	if _, running := s.tasks[m.ID]; running {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[m.ID] = t
	s.mu.Unlock()

	s.logger.Infow("starting monitor", "monitor", m.ID, "name", m.Name, "type", m.Type)
	go s.run(loopCtx, m, t)
}

// StopMonitor cancels the loop and any in-flight probe, then waits for the
// loop goroutine to finish.
func (s *Supervisor) StopMonitor(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	t.cancel()
	<-t.done
	s.logger.Infow("stopped monitor", "monitor", id)
}

// Reload applies a new config by restarting the loop.
func (s *Supervisor) Reload(ctx context.Context, m *monitor.Model) {
	s.StopMonitor(m.ID)
	s.StartMonitor(ctx, m)
}

// Shutdown stops every running loop.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.StopMonitor(id)
	}
}

func (s *Supervisor) run(ctx context.Context, m *monitor.Model, t *task) {
	defer close(t.done)

	// Push monitors wait out a full interval before judging the window;
	// everything else probes immediately.
	var firstDelay time.Duration
	if m.Type == "push" {
		firstDelay = time.Duration(normalizeInterval(m.Interval, s.demoMode)) * time.Second
	}

	rt := &runtime{sup: s, mon: m}
	timer := time.NewTimer(firstDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		next := rt.safeTick(ctx)
		timer.Reset(next)
	}
}

// isUnderMaintenance walks the monitor and its ancestors looking for an
// active window.
func (s *Supervisor) isUnderMaintenance(ctx context.Context, m *monitor.Model) (bool, error) {
	now := time.Now().UTC()
	cur := m
	for depth := 0; cur != nil && depth < maintenanceMaxDepth; depth++ {
		windows, err := s.maintenanceSvc.ListByMonitorID(ctx, cur.ID)
		if err != nil {
			return false, err
		}
		for _, w := range windows {
			if s.maintenanceSvc.IsUnderMaintenance(w, now) {
				return true, nil
			}
		}
		if cur.ParentID == "" {
			return false, nil
		}
		parent, err := s.monitorSvc.FindByID(ctx, cur.ParentID)
		if err != nil {
			return false, err
		}
		cur = parent
	}
	return false, nil
}
