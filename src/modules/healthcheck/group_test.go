package healthcheck

import (
	"context"
	"testing"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChild(env *testEnv, parentID, id string, active bool, status *shared.MonitorStatus) {
	child := &monitor.Model{ID: id, Name: id, Type: "http", Active: active, ParentID: parentID}
	env.monitorSvc.monitors[id] = child
	env.monitorSvc.children[parentID] = append(env.monitorSvc.children[parentID], child)
	if status != nil {
		_, _ = env.beats.Create(context.Background(), &heartbeat.Model{
			ID:        id + "-hb",
			MonitorID: id,
			Status:    *status,
			Time:      time.Now().UTC(),
		})
	}
}

func st(s shared.MonitorStatus) *shared.MonitorStatus { return &s }

func TestResolveGroupEmpty(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g1", Name: "g1", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusPending, res.Status)
	assert.Equal(t, "Group empty", res.Message)
}

func TestResolveGroupDegradesOnPendingChild(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g2", Name: "g2", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	seedChild(env, group.ID, "a", true, st(shared.MonitorStatusUp))
	seedChild(env, group.ID, "b", true, st(shared.MonitorStatusPending))
	seedChild(env, group.ID, "c", true, st(shared.MonitorStatusUp))

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusPending, res.Status)
	assert.Equal(t, "Child inaccessible", res.Message)
}

func TestResolveGroupDownChildWins(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g3", Name: "g3", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	seedChild(env, group.ID, "a", true, st(shared.MonitorStatusUp))
	seedChild(env, group.ID, "b", true, st(shared.MonitorStatusDown))
	seedChild(env, group.ID, "c", true, st(shared.MonitorStatusUp))

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusDown, res.Status)
	assert.Equal(t, "Child inaccessible", res.Message)
}

func TestResolveGroupAllUp(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g4", Name: "g4", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	seedChild(env, group.ID, "a", true, st(shared.MonitorStatusUp))
	seedChild(env, group.ID, "b", true, st(shared.MonitorStatusUp))

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusUp, res.Status)
	assert.Equal(t, "All children up and running", res.Message)
}

func TestResolveGroupSkipsInactiveChildren(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g5", Name: "g5", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	seedChild(env, group.ID, "a", true, st(shared.MonitorStatusUp))
	// Inactive child with no heartbeat must not drag the group to PENDING.
	seedChild(env, group.ID, "b", false, nil)

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusUp, res.Status)
}

func TestResolveGroupChildWithoutBeat(t *testing.T) {
	env := newTestEnv(t, nil)
	group := &monitor.Model{ID: "g6", Name: "g6", Type: "group", Active: true, Interval: 60}
	env.monitorSvc.monitors[group.ID] = group

	seedChild(env, group.ID, "a", true, st(shared.MonitorStatusUp))
	seedChild(env, group.ID, "b", true, nil)

	res, err := env.sup.resolveGroup(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, shared.MonitorStatusPending, res.Status)
}
