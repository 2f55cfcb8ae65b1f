package monitor

import (
	"context"
	"testing"
	"time"

	"vigilo/src/modules/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	monitors map[string]*Model
}

func newMemRepo() *memRepo { return &memRepo{monitors: make(map[string]*Model)} }

func (r *memRepo) FindByID(_ context.Context, id string) (*Model, error) { return r.monitors[id], nil }
func (r *memRepo) FindByPushToken(_ context.Context, token string) (*Model, error) {
	for _, m := range r.monitors {
		if m.PushToken == token {
			return m, nil
		}
	}
	return nil, nil
}
func (r *memRepo) FindActive(_ context.Context) ([]*Model, error) {
	var out []*Model
	for _, m := range r.monitors {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *memRepo) FindChildren(_ context.Context, parentID string) ([]*Model, error) {
	var out []*Model
	for _, m := range r.monitors {
		if m.ParentID == parentID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *memRepo) Create(_ context.Context, m *Model) error { r.monitors[m.ID] = m; return nil }
func (r *memRepo) Update(_ context.Context, m *Model) error { r.monitors[m.ID] = m; return nil }
func (r *memRepo) Delete(_ context.Context, id string) error {
	delete(r.monitors, id)
	return nil
}
func (r *memRepo) UpdateDNSLastResult(_ context.Context, id, result string) error {
	if m, ok := r.monitors[id]; ok {
		m.DNSLastResult = result
	}
	return nil
}

func newTestService(repo Repository) Service {
	return NewService(repo, 20, 86400, events.NewEventBus(), zap.NewNop().Sugar())
}

func TestCreateRejectsOutOfBoundsInterval(t *testing.T) {
	svc := newTestService(newMemRepo())

	tooFast := &Model{ID: "m1", Name: "fast", Type: "http", Interval: 5}
	assert.Error(t, svc.Create(context.Background(), tooFast))

	tooSlow := &Model{ID: "m2", Name: "slow", Type: "http", Interval: 100000}
	assert.Error(t, svc.Create(context.Background(), tooSlow))

	ok := &Model{ID: "m3", Name: "ok", Type: "http", Interval: 60}
	assert.NoError(t, svc.Create(context.Background(), ok))
}

func TestCreatePushSkipsIntervalBounds(t *testing.T) {
	svc := newTestService(newMemRepo())

	// Push monitors are driven by the agent; any window is acceptable.
	m := &Model{ID: "m1", Name: "agent", Type: "push", Interval: 5, PushToken: "tok"}
	assert.NoError(t, svc.Create(context.Background(), m))
}

func TestFindParent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	parent := &Model{ID: "p", Name: "group", Type: "group", Interval: 60}
	child := &Model{ID: "c", Name: "child", Type: "http", Interval: 60, ParentID: "p"}
	require.NoError(t, svc.Create(context.Background(), parent))
	require.NoError(t, svc.Create(context.Background(), child))

	got, err := svc.FindParent(context.Background(), "c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p", got.ID)

	orphan, err := svc.FindParent(context.Background(), "p")
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func TestLifecycleEventsPublished(t *testing.T) {
	repo := newMemRepo()
	bus := events.NewEventBus()
	svc := NewService(repo, 20, 86400, bus, zap.NewNop().Sugar())

	got := make(chan events.Event, 3)
	for _, typ := range []events.EventType{events.MonitorCreated, events.MonitorUpdated, events.MonitorDeleted} {
		bus.Subscribe(typ, func(ev events.Event) { got <- ev })
	}

	m := &Model{ID: "m1", Name: "api", Type: "http", Interval: 60, Active: true}
	require.NoError(t, svc.Create(context.Background(), m))
	waitLifecycleEvent(t, got, events.MonitorCreated, "m1")

	m.Active = false
	require.NoError(t, svc.Update(context.Background(), m))
	waitLifecycleEvent(t, got, events.MonitorUpdated, "m1")

	require.NoError(t, svc.Delete(context.Background(), "m1"))
	waitLifecycleEvent(t, got, events.MonitorDeleted, "m1")
}

func TestRejectedMutationPublishesNothing(t *testing.T) {
	bus := events.NewEventBus()
	svc := NewService(newMemRepo(), 20, 86400, bus, zap.NewNop().Sugar())

	got := make(chan events.Event, 1)
	bus.Subscribe(events.MonitorCreated, func(ev events.Event) { got <- ev })

	bad := &Model{ID: "m1", Name: "fast", Type: "http", Interval: 5}
	require.Error(t, svc.Create(context.Background(), bad))

	select {
	case ev := <-got:
		t.Fatalf("unexpected %s event", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitLifecycleEvent(t *testing.T, ch <-chan events.Event, want events.EventType, id string) {
	t.Helper()
	select {
	case ev := <-ch:
		assert.Equal(t, want, ev.Type)
		m, ok := ev.Payload.(*Model)
		require.True(t, ok)
		assert.Equal(t, id, m.ID)
	case <-time.After(time.Second):
		t.Fatalf("no %s event", want)
	}
}

func TestPublicStripsSecrets(t *testing.T) {
	m := &Model{
		ID: "m1", Name: "api", Type: "http", URL: "https://example.org",
		BasicAuthPass: "hunter2", PushToken: "tok", Active: true,
	}
	pub := m.Public()
	assert.Equal(t, "m1", pub.ID)
	assert.Equal(t, "https://example.org", pub.URL)
}
