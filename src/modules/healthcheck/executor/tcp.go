package executor

import (
	"context"
	"fmt"
	"net"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
)

// TCPExecutor serves the port monitor type: a plain connect, ping is the
// connect time.
type TCPExecutor struct{}

func NewTCPExecutor() *TCPExecutor {
	return &TCPExecutor{}
}

func (e *TCPExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()
	addr := net.JoinHostPort(m.Hostname, fmt.Sprintf("%d", m.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	elapsed := time.Since(start)
	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   fmt.Sprintf("TCP port %d reachable", m.Port),
		Ping:      pingMs(elapsed),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
