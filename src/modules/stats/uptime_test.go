package stats

import (
	"context"
	"testing"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memHeartbeats struct {
	beats     map[string][]*heartbeat.Model
	findCalls int
}

func (m *memHeartbeats) Create(_ context.Context, hb *heartbeat.Model) (*heartbeat.Model, error) {
	m.beats[hb.MonitorID] = append(m.beats[hb.MonitorID], hb)
	return hb, nil
}

func (m *memHeartbeats) FindLatestByMonitorID(_ context.Context, monitorID string) (*heartbeat.Model, error) {
	bs := m.beats[monitorID]
	if len(bs) == 0 {
		return nil, nil
	}
	return bs[len(bs)-1], nil
}

func (m *memHeartbeats) FindSince(_ context.Context, monitorID string, since time.Time) ([]*heartbeat.Model, error) {
	m.findCalls++
	var out []*heartbeat.Model
	for _, hb := range m.beats[monitorID] {
		if hb.Time.After(since) {
			out = append(out, hb)
		}
	}
	return out, nil
}

func (m *memHeartbeats) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func beat(status shared.MonitorStatus, age time.Duration, durationSec int) *heartbeat.Model {
	return &heartbeat.Model{
		Status:   status,
		Time:     time.Now().UTC().Add(-age),
		Duration: durationSec,
	}
}

func TestComputeUptimeRatio(t *testing.T) {
	t0 := time.Now().UTC().Add(-24 * time.Hour)
	beats := []*heartbeat.Model{
		beat(shared.MonitorStatusUp, 3*time.Hour, 3600),
		beat(shared.MonitorStatusDown, 2*time.Hour, 3600),
		beat(shared.MonitorStatusUp, 1*time.Hour, 3600),
	}

	// 2 of 3 hours up.
	assert.InDelta(t, 2.0/3.0, computeUptime(beats, t0), 1e-9)
}

func TestComputeUptimeMaintenanceCountsAsUp(t *testing.T) {
	t0 := time.Now().UTC().Add(-24 * time.Hour)
	beats := []*heartbeat.Model{
		beat(shared.MonitorStatusMaintenance, 2*time.Hour, 3600),
		beat(shared.MonitorStatusDown, 1*time.Hour, 3600),
	}
	assert.InDelta(t, 0.5, computeUptime(beats, t0), 1e-9)
}

func TestComputeUptimeTrimsToWindow(t *testing.T) {
	// One beat whose duration reaches far beyond the window start: only the
	// in-window share may count.
	t0 := time.Now().UTC().Add(-1 * time.Hour)
	beats := []*heartbeat.Model{
		beat(shared.MonitorStatusUp, 30*time.Minute, 86400),
		beat(shared.MonitorStatusDown, 15*time.Minute, 900),
	}
	// UP trimmed to 30min, DOWN keeps 15min.
	assert.InDelta(t, 1800.0/2700.0, computeUptime(beats, t0), 1e-6)
}

func TestComputeUptimeFallback(t *testing.T) {
	t0 := time.Now().UTC().Add(-24 * time.Hour)

	up := []*heartbeat.Model{beat(shared.MonitorStatusUp, time.Minute, 0)}
	assert.Equal(t, 1.0, computeUptime(up, t0))

	down := []*heartbeat.Model{beat(shared.MonitorStatusDown, time.Minute, 0)}
	assert.Equal(t, 0.0, computeUptime(down, t0))

	assert.Equal(t, 0.0, computeUptime(nil, t0))
}

func TestUptimeCacheInvalidation(t *testing.T) {
	mem := &memHeartbeats{beats: make(map[string][]*heartbeat.Model)}
	svc := NewService(mem, zap.NewNop().Sugar())

	_, err := mem.Create(context.Background(), &heartbeat.Model{
		MonitorID: "m1",
		Status:    shared.MonitorStatusUp,
		Time:      time.Now().UTC().Add(-time.Hour),
		Duration:  3600,
	})
	require.NoError(t, err)

	first, err := svc.Uptime(context.Background(), "m1", 24)
	require.NoError(t, err)
	assert.Equal(t, 1.0, first)
	assert.Equal(t, 1, mem.findCalls)

	// Cached: no new query.
	_, err = svc.Uptime(context.Background(), "m1", 24)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.findCalls)

	svc.InvalidateCache("m1")
	_, err = svc.Uptime(context.Background(), "m1", 24)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.findCalls)
}

func TestAvgPingIgnoresNulls(t *testing.T) {
	mem := &memHeartbeats{beats: make(map[string][]*heartbeat.Model)}
	svc := NewService(mem, zap.NewNop().Sugar())

	p10, p30 := 10, 30
	for _, ping := range []*int{&p10, nil, &p30} {
		_, err := mem.Create(context.Background(), &heartbeat.Model{
			MonitorID: "m1",
			Status:    shared.MonitorStatusUp,
			Time:      time.Now().UTC().Add(-time.Minute),
			Ping:      ping,
		})
		require.NoError(t, err)
	}

	avg, err := svc.AvgPing(context.Background(), "m1", 24)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, avg, 1e-9)
}
