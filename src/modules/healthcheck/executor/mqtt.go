package executor

import (
	"context"
	"fmt"
	"net"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTExecutor subscribes to the configured topic and waits for one message.
// When a success message is configured, the received payload must match it.
type MQTTExecutor struct{}

func NewMQTTExecutor() *MQTTExecutor {
	return &MQTTExecutor{}
}

func (e *MQTTExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	broker := fmt.Sprintf("tcp://%s", net.JoinHostPort(m.Hostname, fmt.Sprintf("%d", m.Port)))
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("vigilo-" + uuid.NewString()[:8]).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(false)
	if m.MQTTUsername != "" {
		opts.SetUsername(m.MQTTUsername)
		opts.SetPassword(m.MQTTPassword)
	}

	client := mqtt.NewClient(opts)
	defer client.Disconnect(250)

	if tok := client.Connect(); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		if tok.Error() != nil {
			return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
		}
		return nil, fmt.Errorf("mqtt connect timed out")
	}

	received := make(chan string, 1)
	tok := client.Subscribe(m.MQTTTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case received <- string(msg.Payload()):
		default:
		}
	})
	if !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		if tok.Error() != nil {
			return nil, fmt.Errorf("mqtt subscribe: %w", tok.Error())
		}
		return nil, fmt.Errorf("mqtt subscribe timed out")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-received:
		if m.MQTTSuccessMessage != "" && payload != m.MQTTSuccessMessage {
			return nil, fmt.Errorf("message mismatch: got %q, want %q", payload, m.MQTTSuccessMessage)
		}
		return &Result{
			Status:    shared.MonitorStatusUp,
			Message:   fmt.Sprintf("topic %s: %s", m.MQTTTopic, payload),
			Ping:      pingMs(time.Since(start)),
			StartTime: start,
			EndTime:   time.Now().UTC(),
		}, nil
	}
}
