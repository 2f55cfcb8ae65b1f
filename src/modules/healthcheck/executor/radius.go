package executor

import (
	"context"
	"fmt"
	"net"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// RadiusExecutor attempts an Access-Request; UP only on Access-Accept.
type RadiusExecutor struct{}

func NewRadiusExecutor() *RadiusExecutor {
	return &RadiusExecutor{}
}

func (e *RadiusExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	packet := radius.New(radius.CodeAccessRequest, []byte(m.RadiusSecret))
	if err := rfc2865.UserName_SetString(packet, m.RadiusUsername); err != nil {
		return nil, err
	}
	if err := rfc2865.UserPassword_SetString(packet, m.RadiusPassword); err != nil {
		return nil, err
	}
	if m.RadiusCalledID != "" {
		_ = rfc2865.CalledStationID_SetString(packet, m.RadiusCalledID)
	}
	if m.RadiusCallingID != "" {
		_ = rfc2865.CallingStationID_SetString(packet, m.RadiusCallingID)
	}

	port := m.Port
	if port == 0 {
		port = 1812
	}
	addr := net.JoinHostPort(m.Hostname, fmt.Sprintf("%d", port))

	resp, err := radius.Exchange(ctx, packet, addr)
	if err != nil {
		return nil, err
	}
	if resp.Code != radius.CodeAccessAccept {
		return nil, fmt.Errorf("access denied: %s", resp.Code)
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   "Access-Accept",
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
