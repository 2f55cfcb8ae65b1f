package executor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/docker/docker/client"
)

// DockerExecutor inspects a container over the unix socket or a TCP daemon
// endpoint. Running without a health check is UP; an unhealthy or starting
// health state degrades to PENDING.
type DockerExecutor struct{}

func NewDockerExecutor() *DockerExecutor {
	return &DockerExecutor{}
}

func (e *DockerExecutor) newClient(m *monitor.Model) (*client.Client, error) {
	host := m.DockerHost
	if host == "" {
		host = client.DefaultDockerHost
	}

	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	if m.DockerTLS && strings.HasPrefix(host, "tcp://") {
		// The daemon TLS material lives in the model as PEM, not on disk.
		tlsCfg, err := clientTLSConfig(m)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			client.WithHTTPClient(&http.Client{
				Transport: &http.Transport{TLSClientConfig: tlsCfg},
			}),
			client.WithScheme("https"),
		)
	}
	// WithHost must come after the custom client so it can configure the
	// transport's dialer for the daemon address.
	opts = append(opts, client.WithHost(host))

	return client.NewClientWithOpts(opts...)
}

func (e *DockerExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	cli, err := e.newClient(m)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	defer cli.Close()

	info, err := cli.ContainerInspect(ctx, m.DockerContainer)
	if err != nil {
		return nil, err
	}

	if info.State == nil || !info.State.Running {
		return nil, fmt.Errorf("container %s is not running", m.DockerContainer)
	}

	result := &Result{
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}

	if info.State.Health != nil && info.State.Health.Status != "healthy" {
		result.Status = shared.MonitorStatusPending
		result.Message = fmt.Sprintf("container health: %s", info.State.Health.Status)
		return result, nil
	}

	result.Status = shared.MonitorStatusUp
	result.Message = "container is running"
	return result, nil
}
