package notification_channel

import (
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"go.uber.org/zap"
)

// PreCommandRunner executes a shell hook on UP/DOWN transitions. The command
// receives the new status and the public monitor JSON as arguments. A hook
// failure must never block the notification path, so Run only logs.
type PreCommandRunner struct {
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewPreCommandRunner(logger *zap.SugaredLogger) *PreCommandRunner {
	return &PreCommandRunner{
		timeout: 30 * time.Second,
		logger:  logger.With("service", "[precommand]"),
	}
}

func (r *PreCommandRunner) Run(ctx context.Context, mon *monitor.Model, status shared.MonitorStatus) {
	var command string
	switch status {
	case shared.MonitorStatusUp:
		command = mon.PreUpCommand
	case shared.MonitorStatusDown:
		command = mon.PreDownCommand
	}
	if command == "" {
		return
	}

	public, err := json.Marshal(mon.Public())
	if err != nil {
		r.logger.Errorf("marshal monitor %s: %v", mon.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command+" \"$0\" \"$1\"", status.String(), string(public))
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.Errorf("pre-%s command for monitor %s: %v (%s)", status, mon.ID, err, out)
		return
	}
	r.logger.Debugf("pre-%s command for monitor %s ok", status, mon.ID)
}
