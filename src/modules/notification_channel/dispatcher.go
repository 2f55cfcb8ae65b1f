package notification_channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/monitor_notification"
	"vigilo/src/modules/shared"

	"github.com/osteele/liquid"
	"go.uber.org/zap"
)

// Payload is what providers receive for a status notification.
type Payload struct {
	Monitor        monitor.PublicJSON `json:"monitor"`
	Heartbeat      *heartbeat.Model   `json:"heartbeat,omitempty"`
	Msg            string             `json:"msg"`
	Timezone       string             `json:"timezone"`
	TimezoneOffset string             `json:"timezone_offset"`
	LocalDateTime  string             `json:"local_date_time"`
}

// Dispatcher fans a notification out to every channel configured for a
// monitor. Provider failures are logged and never abort the loop.
type Dispatcher struct {
	repo        Repository
	monNotifSvc monitor_notification.Service
	monitorSvc  monitor.Service
	httpClient  *http.Client
	liquid      *liquid.Engine
	timezone    *time.Location
	logger      *zap.SugaredLogger
}

func NewDispatcher(
	repo Repository,
	monNotifSvc monitor_notification.Service,
	monitorSvc monitor.Service,
	timezone *time.Location,
	logger *zap.SugaredLogger,
) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		monNotifSvc: monNotifSvc,
		monitorSvc:  monitorSvc,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		liquid:      liquid.NewEngine(),
		timezone:    timezone,
		logger:      logger.With("service", "[notification]"),
	}
}

// StatusMessage renders the canonical transition message.
func StatusMessage(name string, status shared.MonitorStatus, msg string) string {
	if msg == "" {
		msg = "N/A"
	}
	marker := "🔴 Down"
	if status == shared.MonitorStatusUp {
		marker = "✅ Up"
	}
	return fmt.Sprintf("[%s] [%s] %s", name, marker, msg)
}

func (d *Dispatcher) buildPayload(mon *monitor.Model, hb *heartbeat.Model, msg string) *Payload {
	now := time.Now().In(d.timezone)
	return &Payload{
		Monitor:        mon.Public(),
		Heartbeat:      hb,
		Msg:            msg,
		Timezone:       d.timezone.String(),
		TimezoneOffset: now.Format("-07:00"),
		LocalDateTime:  now.Format("2006-01-02 15:04:05"),
	}
}

// SendStatus notifies every channel of the monitor about an important beat.
func (d *Dispatcher) SendStatus(ctx context.Context, mon *monitor.Model, hb *heartbeat.Model) {
	msg := StatusMessage(mon.Name, hb.Status, hb.Msg)
	d.send(ctx, mon, d.buildPayload(mon, hb, msg))
}

// SendForMonitor sends a pre-rendered message (cert expiry path).
func (d *Dispatcher) SendForMonitor(ctx context.Context, monitorID, msg string) error {
	mon, err := d.monitorSvc.FindByID(ctx, monitorID)
	if err != nil {
		return err
	}
	if mon == nil {
		return fmt.Errorf("monitor %s not found", monitorID)
	}
	d.send(ctx, mon, d.buildPayload(mon, nil, msg))
	return nil
}

func (d *Dispatcher) send(ctx context.Context, mon *monitor.Model, payload *Payload) {
	ids, err := d.monNotifSvc.ListChannelIDs(ctx, mon.ID)
	if err != nil {
		d.logger.Errorf("list channels for monitor %s: %v", mon.ID, err)
		return
	}
	channels, err := d.repo.FindByIDs(ctx, ids)
	if err != nil {
		d.logger.Errorf("load channels for monitor %s: %v", mon.ID, err)
		return
	}

	for _, ch := range channels {
		if err := d.dispatchOne(ctx, ch, payload); err != nil {
			d.logger.Errorf("channel %s (%s) for monitor %s: %v", ch.Name, ch.Type, mon.ID, err)
		}
	}
}

type webhookConfig struct {
	URL      string `json:"url"`
	Template string `json:"template"`
}

func (d *Dispatcher) dispatchOne(ctx context.Context, ch *Model, payload *Payload) error {
	switch ch.Type {
	case "webhook":
		return d.sendWebhook(ctx, ch, payload)
	case "log":
		d.logger.Infow("notification", "channel", ch.Name, "msg", payload.Msg)
		return nil
	default:
		return fmt.Errorf("unknown channel type %q", ch.Type)
	}
}

func (d *Dispatcher) sendWebhook(ctx context.Context, ch *Model, payload *Payload) error {
	var cfg webhookConfig
	if err := json.Unmarshal([]byte(ch.Config), &cfg); err != nil {
		return fmt.Errorf("invalid webhook config: %w", err)
	}

	var body []byte
	if cfg.Template != "" {
		bindings := map[string]any{
			"msg":       payload.Msg,
			"monitor":   payload.Monitor,
			"heartbeat": payload.Heartbeat,
		}
		rendered, err := d.liquid.ParseAndRenderString(cfg.Template, bindings)
		if err != nil {
			return fmt.Errorf("render template: %w", err)
		}
		body = []byte(rendered)
	} else {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
