package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"go.uber.org/zap"
)

const steamServerListURL = "https://api.steampowered.com/IGameServersService/GetServerList/v1/"

type steamServerListResponse struct {
	Response struct {
		Servers []struct {
			Addr string `json:"addr"`
			Name string `json:"name"`
		} `json:"servers"`
	} `json:"response"`
}

// SteamExecutor looks the server up in the Steam master list; ICMP is only
// used for latency and never fails the probe.
type SteamExecutor struct {
	client *http.Client
	logger *zap.SugaredLogger
}

func NewSteamExecutor(logger *zap.SugaredLogger) *SteamExecutor {
	return &SteamExecutor{
		client: &http.Client{},
		logger: logger.With("executor", "steam"),
	}
}

func (e *SteamExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	if m.SteamAPIKey == "" {
		return nil, fmt.Errorf("steam api key is not configured")
	}

	query := url.Values{}
	query.Set("key", m.SteamAPIKey)
	query.Set("filter", fmt.Sprintf(`addr\%s:%d`, m.Hostname, m.Port))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, steamServerListURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam api returned %s", resp.Status)
	}

	var list steamServerListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}
	if len(list.Response.Servers) == 0 {
		return nil, fmt.Errorf("server not found in the steam server list")
	}

	result := &Result{
		Status:    shared.MonitorStatusUp,
		Message:   list.Response.Servers[0].Name,
		StartTime: start,
	}

	if ms, err := Ping(ctx, m.Hostname, m.PacketSize); err == nil {
		result.Ping = &ms
	} else {
		e.logger.Debugw("latency ping failed", "hostname", m.Hostname, "error", err)
	}

	result.EndTime = time.Now().UTC()
	return result, nil
}
