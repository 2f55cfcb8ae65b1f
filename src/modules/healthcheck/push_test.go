package healthcheck

import (
	"testing"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPushWindow(t *testing.T) {
	now := time.Now().UTC()
	interval := 60 * time.Second

	t.Run("no previous beat", func(t *testing.T) {
		_, err := checkPushWindow(nil, interval, now)
		assert.ErrorIs(t, err, errNoPushHeartbeat)
	})

	t.Run("previous beat down does not count", func(t *testing.T) {
		prev := &heartbeat.Model{Status: shared.MonitorStatusDown, Time: now.Add(-time.Second)}
		_, err := checkPushWindow(prev, interval, now)
		assert.ErrorIs(t, err, errNoPushHeartbeat)
	})

	t.Run("fresh up beat keeps window open", func(t *testing.T) {
		prev := &heartbeat.Model{Status: shared.MonitorStatusUp, Time: now.Add(-30 * time.Second)}
		remaining, err := checkPushWindow(prev, interval, now)
		require.NoError(t, err)
		assert.Equal(t, 31*time.Second, remaining)
	})

	t.Run("beat right at the buffer edge", func(t *testing.T) {
		prev := &heartbeat.Model{Status: shared.MonitorStatusUp, Time: now.Add(-interval - pushBuffer)}
		remaining, err := checkPushWindow(prev, interval, now)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), remaining)
	})

	t.Run("stale beat misses the window", func(t *testing.T) {
		prev := &heartbeat.Model{Status: shared.MonitorStatusUp, Time: now.Add(-interval - 2*time.Second)}
		_, err := checkPushWindow(prev, interval, now)
		assert.ErrorIs(t, err, errNoPushHeartbeat)
	})
}
