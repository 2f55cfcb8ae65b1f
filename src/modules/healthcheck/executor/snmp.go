package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/gosnmp/gosnmp"
)

// SNMPExecutor fetches one OID over v2c and compares it against the
// configured value with the configured condition.
type SNMPExecutor struct{}

func NewSNMPExecutor() *SNMPExecutor {
	return &SNMPExecutor{}
}

func (e *SNMPExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	port := uint16(161)
	if m.Port > 0 {
		port = uint16(m.Port)
	}
	community := m.SNMPCommunity
	if community == "" {
		community = "public"
	}

	client := &gosnmp.GoSNMP{
		Target:    m.Hostname,
		Port:      port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   5 * time.Second,
		Retries:   1,
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect: %w", err)
	}
	defer client.Conn.Close()

	packet, err := client.Get([]string{m.SNMPOID})
	if err != nil {
		return nil, fmt.Errorf("snmp get: %w", err)
	}
	if len(packet.Variables) == 0 || packet.Variables[0].Type == gosnmp.NoSuchObject {
		return nil, fmt.Errorf("OID %s not found", m.SNMPOID)
	}

	value := snmpValueString(packet.Variables[0])
	if err := checkSNMPCondition(value, m.SNMPCondition, m.SNMPValue); err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   fmt.Sprintf("%s = %s", m.SNMPOID, value),
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}

func snmpValueString(v gosnmp.SnmpPDU) string {
	switch val := v.Value.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func checkSNMPCondition(got, condition, want string) error {
	if condition == "" || want == "" {
		return nil
	}

	switch condition {
	case "==":
		if got == want {
			return nil
		}
	case "!=":
		if got != want {
			return nil
		}
	case "<", ">", "<=", ">=":
		g, err1 := strconv.ParseFloat(got, 64)
		w, err2 := strconv.ParseFloat(want, 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("condition %q needs numeric values (got %q, want %q)", condition, got, want)
		}
		ok := false
		switch condition {
		case "<":
			ok = g < w
		case ">":
			ok = g > w
		case "<=":
			ok = g <= w
		case ">=":
			ok = g >= w
		}
		if ok {
			return nil
		}
	default:
		return fmt.Errorf("unknown condition %q", condition)
	}
	return fmt.Errorf("condition failed: %q %s %q", got, condition, want)
}
