package executor

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
)

// a2sInfoRequest is the Source engine A2S_INFO query, shared by every game
// the gamedig monitor supports.
var a2sInfoRequest = append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54}, []byte("Source Engine Query\x00")...)

// GamedigExecutor queries a game server over the A2S_INFO protocol.
type GamedigExecutor struct{}

func NewGamedigExecutor() *GamedigExecutor {
	return &GamedigExecutor{}
}

func (e *GamedigExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	addr := net.JoinHostPort(m.Hostname, fmt.Sprintf("%d", m.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sent := time.Now()
	if _, err := conn.Write(a2sInfoRequest); err != nil {
		return nil, err
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}

	// A challenge response (0x41) carries a 4-byte token to append and retry.
	if n >= 9 && buf[4] == 0x41 {
		retry := append(append([]byte{}, a2sInfoRequest...), buf[5:9]...)
		if _, err := conn.Write(retry); err != nil {
			return nil, err
		}
		n, err = conn.Read(buf)
		if err != nil {
			return nil, err
		}
	}

	name, err := parseA2SInfo(buf[:n])
	if err != nil {
		return nil, err
	}
	ms := int(time.Since(sent).Milliseconds())

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   name,
		Ping:      &ms,
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}

func parseA2SInfo(pkt []byte) (string, error) {
	if len(pkt) < 6 {
		return "", fmt.Errorf("short response (%d bytes)", len(pkt))
	}
	var header uint32
	if err := binary.Read(bytes.NewReader(pkt[:4]), binary.LittleEndian, &header); err != nil {
		return "", err
	}
	if header != 0xFFFFFFFF || pkt[4] != 0x49 {
		return "", fmt.Errorf("unexpected response header 0x%x/0x%x", header, pkt[4])
	}

	// Header byte, protocol byte, then the NUL-terminated server name.
	rest := pkt[6:]
	end := bytes.IndexByte(rest, 0x00)
	if end < 0 {
		return "", fmt.Errorf("malformed info response")
	}
	return string(rest[:end]), nil
}
