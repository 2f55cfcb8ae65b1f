package executor

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const defaultPacketSize = 56

// PingExecutor sends one ICMP echo. It tries an unprivileged datagram
// socket first and falls back to a raw socket when permitted.
type PingExecutor struct{}

func NewPingExecutor() *PingExecutor {
	return &PingExecutor{}
}

func listenICMP() (*icmp.PacketConn, bool, error) {
	if conn, err := icmp.ListenPacket("udp4", "0.0.0.0"); err == nil {
		return conn, false, nil
	}
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, false, fmt.Errorf("icmp socket: %w", err)
	}
	return conn, true, nil
}

func (e *PingExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	ms, err := Ping(ctx, m.Hostname, m.PacketSize)
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   "OK",
		Ping:      &ms,
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}

// Ping performs one echo round trip and returns the latency in ms.
func Ping(ctx context.Context, hostname string, packetSize int) (int, error) {
	if packetSize <= 0 {
		packetSize = defaultPacketSize
	}

	dst, err := net.ResolveIPAddr("ip4", hostname)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", hostname, err)
	}

	conn, raw, err := listenICMP()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: make([]byte, packetSize),
		},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	var target net.Addr = &net.UDPAddr{IP: dst.IP}
	if raw {
		target = dst
	}

	sent := time.Now()
	if _, err := conn.WriteTo(wire, target); err != nil {
		return 0, fmt.Errorf("icmp send: %w", err)
	}

	reply := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(reply)
		if err != nil {
			return 0, fmt.Errorf("icmp receive: %w", err)
		}
		parsed, err := icmp.ParseMessage(1, reply[:n])
		if err != nil {
			continue
		}
		if parsed.Type == ipv4.ICMPTypeEchoReply {
			return int(time.Since(sent).Milliseconds()), nil
		}
	}
}
