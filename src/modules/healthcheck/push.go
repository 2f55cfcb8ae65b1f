package healthcheck

import (
	"errors"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/shared"
)

// pushBuffer absorbs agent-side jitter when judging the arrival window.
const pushBuffer = time.Second

var errNoPushHeartbeat = errors.New("No heartbeat in the time window")

// checkPushWindow decides whether an external agent has reported in time.
// Only an UP previous beat counts as a good state; a stale or DOWN beat
// falls through into the normal retry flow. When the window is still open
// the runtime must not insert a synthetic beat and instead sleeps until the
// next deadline.
func checkPushWindow(prev *heartbeat.Model, beatInterval time.Duration, now time.Time) (time.Duration, error) {
	if prev == nil || prev.Status != shared.MonitorStatusUp {
		return 0, errNoPushHeartbeat
	}
	deadline := prev.Time.Add(beatInterval + pushBuffer)
	if now.After(deadline) {
		return 0, errNoPushHeartbeat
	}
	return deadline.Sub(now), nil
}
