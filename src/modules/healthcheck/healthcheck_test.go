package healthcheck

import (
	"context"
	"sync"
	"testing"
	"time"

	"vigilo/src/modules/events"
	"vigilo/src/modules/healthcheck/executor"
	"vigilo/src/modules/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parkedExecutor blocks until its context is cancelled.
type parkedExecutor struct {
	started chan struct{}
	once    sync.Once
}

func (p *parkedExecutor) Execute(ctx context.Context, _ *monitor.Model) (*executor.Result, error) {
	p.once.Do(func() { close(p.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSupervisorStartIsIdempotent(t *testing.T) {
	probe := &scriptedExecutor{outcomes: []error{nil}}
	env := newTestEnv(t, probe)

	mon := &monitor.Model{ID: "m1", Name: "svc", Type: "http", Active: true, Interval: 60}
	env.monitorSvc.monitors[mon.ID] = mon

	env.sup.StartMonitor(context.Background(), mon)
	env.sup.StartMonitor(context.Background(), mon)

	env.sup.mu.Lock()
	running := len(env.sup.tasks)
	env.sup.mu.Unlock()
	assert.Equal(t, 1, running)

	env.sup.StopMonitor(mon.ID)
}

func TestSupervisorFirstTickImmediate(t *testing.T) {
	probe := &scriptedExecutor{outcomes: []error{nil}}
	env := newTestEnv(t, probe)

	mon := &monitor.Model{ID: "m1", Name: "svc", Type: "http", Active: true, Interval: 60}
	env.monitorSvc.monitors[mon.ID] = mon

	env.sup.StartMonitor(context.Background(), mon)
	defer env.sup.StopMonitor(mon.ID)

	require.Eventually(t, func() bool {
		return len(env.storedBeats(mon.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond, "non-push monitors probe immediately")
}

func TestSupervisorStopStartStopProducesNoExtraBeats(t *testing.T) {
	probe := &scriptedExecutor{outcomes: []error{nil}}
	env := newTestEnv(t, probe)

	mon := &monitor.Model{ID: "m1", Name: "svc", Type: "http", Active: true, Interval: 3600}
	env.monitorSvc.monitors[mon.ID] = mon

	env.sup.StartMonitor(context.Background(), mon)
	require.Eventually(t, func() bool {
		return len(env.storedBeats(mon.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	env.sup.StopMonitor(mon.ID)
	env.sup.StartMonitor(context.Background(), mon)

	// Restart re-probes once; no beats beyond the two first ticks.
	require.Eventually(t, func() bool {
		return len(env.storedBeats(mon.ID)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	env.sup.StopMonitor(mon.ID)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, env.storedBeats(mon.ID), 2, "stop produces no beats")
}

func TestSupervisorStopDuringProbeProducesNoBeat(t *testing.T) {
	probe := &parkedExecutor{started: make(chan struct{})}
	env := newTestEnv(t, probe)

	mon := &monitor.Model{
		ID: "m1", Name: "stuck", Type: "http", Active: true,
		Interval: 3600, Timeout: 3600,
	}
	env.monitorSvc.monitors[mon.ID] = mon
	env.sup.StartMonitor(context.Background(), mon)

	select {
	case <-probe.started:
	case <-time.After(5 * time.Second):
		t.Fatal("probe never started")
	}
	env.sup.StopMonitor(mon.ID)

	assert.Empty(t, env.storedBeats(mon.ID), "stop mid-probe must not produce a beat")
	assert.Equal(t, 0, env.sendCount(), "stop mid-probe must not notify")
}

func TestSupervisorDeactivationEventStopsLoop(t *testing.T) {
	probe := &scriptedExecutor{outcomes: []error{nil}}
	env := newTestEnv(t, probe)
	env.sup.subscribe()

	mon := &monitor.Model{ID: "m1", Name: "toggled", Type: "http", Active: true, Interval: 3600}
	env.monitorSvc.monitors[mon.ID] = mon
	env.sup.StartMonitor(context.Background(), mon)
	require.Eventually(t, func() bool {
		return len(env.storedBeats(mon.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	deactivated := *mon
	deactivated.Active = false
	env.sup.bus.Publish(events.Event{Type: events.MonitorUpdated, Payload: &deactivated})

	require.Eventually(t, func() bool {
		env.sup.mu.Lock()
		defer env.sup.mu.Unlock()
		_, running := env.sup.tasks[mon.ID]
		return !running
	}, 5*time.Second, 10*time.Millisecond, "deactivation must stop the loop")
}

func TestSupervisorStopUnknownMonitorIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sup.StopMonitor("ghost")
}

func TestSupervisorShutdownStopsEverything(t *testing.T) {
	probe := &scriptedExecutor{outcomes: []error{nil}}
	env := newTestEnv(t, probe)

	for _, id := range []string{"a", "b", "c"} {
		m := &monitor.Model{ID: id, Name: id, Type: "http", Active: true, Interval: 3600}
		env.monitorSvc.monitors[id] = m
		env.sup.StartMonitor(context.Background(), m)
	}

	env.sup.Shutdown()

	env.sup.mu.Lock()
	defer env.sup.mu.Unlock()
	assert.Empty(t, env.sup.tasks)
}

func TestNormalizeInterval(t *testing.T) {
	assert.Equal(t, 1, normalizeInterval(0, false))
	assert.Equal(t, 60, normalizeInterval(60, false))
	assert.Equal(t, 20, normalizeInterval(5, true))
	assert.Equal(t, 60, normalizeInterval(60, true))
}
