package notification_channel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memChannelRepo struct {
	channels map[string]*Model
}

func (m *memChannelRepo) FindByID(_ context.Context, id string) (*Model, error) {
	return m.channels[id], nil
}

func (m *memChannelRepo) FindByIDs(_ context.Context, ids []string) ([]*Model, error) {
	var out []*Model
	for _, id := range ids {
		if ch, ok := m.channels[id]; ok && ch.Active {
			out = append(out, ch)
		}
	}
	return out, nil
}

type memMonNotif struct {
	links map[string][]string
}

func (m *memMonNotif) ListChannelIDs(_ context.Context, monitorID string) ([]string, error) {
	return m.links[monitorID], nil
}
func (m *memMonNotif) Attach(context.Context, string, string) error { return nil }
func (m *memMonNotif) Detach(context.Context, string, string) error { return nil }

type stubMonitorSvc struct {
	m *monitor.Model
}

func (s *stubMonitorSvc) FindByID(context.Context, string) (*monitor.Model, error) { return s.m, nil }
func (s *stubMonitorSvc) FindByPushToken(context.Context, string) (*monitor.Model, error) {
	return nil, nil
}
func (s *stubMonitorSvc) FindActive(context.Context) ([]*monitor.Model, error)          { return nil, nil }
func (s *stubMonitorSvc) FindChildren(context.Context, string) ([]*monitor.Model, error) {
	return nil, nil
}
func (s *stubMonitorSvc) FindParent(context.Context, string) (*monitor.Model, error) { return nil, nil }
func (s *stubMonitorSvc) Create(context.Context, *monitor.Model) error               { return nil }
func (s *stubMonitorSvc) Update(context.Context, *monitor.Model) error               { return nil }
func (s *stubMonitorSvc) Delete(context.Context, string) error                       { return nil }
func (s *stubMonitorSvc) UpdateDNSLastResult(context.Context, string, string) error  { return nil }

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "[api] [✅ Up] 200 - OK",
		StatusMessage("api", shared.MonitorStatusUp, "200 - OK"))
	assert.Equal(t, "[api] [🔴 Down] connection refused",
		StatusMessage("api", shared.MonitorStatusDown, "connection refused"))
	assert.Equal(t, "[api] [🔴 Down] N/A",
		StatusMessage("api", shared.MonitorStatusDown, ""))
}

func TestSendStatusWebhook(t *testing.T) {
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mon := &monitor.Model{ID: "m1", Name: "api", Type: "http", URL: "https://example.org", Active: true}
	repo := &memChannelRepo{channels: map[string]*Model{
		"ch1": {ID: "ch1", Name: "hook", Type: "webhook", Active: true,
			Config: `{"url":"` + srv.URL + `"}`},
	}}
	links := &memMonNotif{links: map[string][]string{"m1": {"ch1"}}}

	d := NewDispatcher(repo, links, &stubMonitorSvc{m: mon}, time.UTC, zap.NewNop().Sugar())
	hb := &heartbeat.Model{MonitorID: "m1", Status: shared.MonitorStatusDown, Msg: "connection refused"}
	d.SendStatus(context.Background(), mon, hb)

	assert.Equal(t, "[api] [🔴 Down] connection refused", received.Msg)
	assert.Equal(t, "m1", received.Monitor.ID)
	assert.Equal(t, "UTC", received.Timezone)
	require.NotNil(t, received.Heartbeat)
	assert.Equal(t, shared.MonitorStatusDown, received.Heartbeat.Status)
}

func TestSendStatusWebhookTemplate(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mon := &monitor.Model{ID: "m1", Name: "api", Type: "http", Active: true}
	repo := &memChannelRepo{channels: map[string]*Model{
		"ch1": {ID: "ch1", Name: "hook", Type: "webhook", Active: true,
			Config: `{"url":"` + srv.URL + `","template":"{\"text\":\"{{ msg }}\"}"}`},
	}}
	links := &memMonNotif{links: map[string][]string{"m1": {"ch1"}}}

	d := NewDispatcher(repo, links, &stubMonitorSvc{m: mon}, time.UTC, zap.NewNop().Sugar())
	hb := &heartbeat.Model{MonitorID: "m1", Status: shared.MonitorStatusUp, Msg: "200 - OK"}
	d.SendStatus(context.Background(), mon, hb)

	assert.JSONEq(t, `{"text":"[api] [✅ Up] 200 - OK"}`, string(raw))
}

func TestSendForMonitorRendersCertMessage(t *testing.T) {
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mon := &monitor.Model{ID: "m1", Name: "api", Type: "http", Active: true}
	repo := &memChannelRepo{channels: map[string]*Model{
		"ch1": {ID: "ch1", Name: "hook", Type: "webhook", Active: true,
			Config: `{"url":"` + srv.URL + `"}`},
	}}
	links := &memMonNotif{links: map[string][]string{"m1": {"ch1"}}}

	d := NewDispatcher(repo, links, &stubMonitorSvc{m: mon}, time.UTC, zap.NewNop().Sugar())
	msg := "[api][https://example.org] server certificate example.org will be expired in 10 days"
	require.NoError(t, d.SendForMonitor(context.Background(), "m1", msg))
	assert.Equal(t, msg, received.Msg)
	assert.Nil(t, received.Heartbeat)
}

func TestDispatchFailureDoesNotAbort(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mon := &monitor.Model{ID: "m1", Name: "api", Type: "http", Active: true}
	repo := &memChannelRepo{channels: map[string]*Model{
		"bad": {ID: "bad", Name: "bad", Type: "webhook", Active: true,
			Config: `{"url":"` + srv.URL + `"}`},
		"log": {ID: "log", Name: "fallback", Type: "log", Active: true},
	}}
	links := &memMonNotif{links: map[string][]string{"m1": {"bad", "log"}}}

	d := NewDispatcher(repo, links, &stubMonitorSvc{m: mon}, time.UTC, zap.NewNop().Sugar())
	hb := &heartbeat.Model{MonitorID: "m1", Status: shared.MonitorStatusDown, Msg: "boom"}
	d.SendStatus(context.Background(), mon, hb)

	// The failing webhook was attempted and the loop carried on.
	assert.Equal(t, 1, hits)
}
