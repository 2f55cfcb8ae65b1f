package healthcheck

import (
	"testing"

	"vigilo/src/modules/shared"

	"github.com/stretchr/testify/assert"
)

func TestIsImportant(t *testing.T) {
	up := shared.MonitorStatusUp
	down := shared.MonitorStatusDown
	pending := shared.MonitorStatusPending
	maint := shared.MonitorStatusMaintenance

	cases := []struct {
		name       string
		first      bool
		prev, curr shared.MonitorStatus
		want       bool
	}{
		{"first beat", true, down, pending, true},
		{"up to down", false, up, down, true},
		{"down to up", false, down, up, true},
		{"pending to down", false, pending, down, true},
		{"up to maintenance", false, up, maint, true},
		{"down to maintenance", false, down, maint, true},
		{"maintenance to up", false, maint, up, true},
		{"maintenance to down", false, maint, down, true},
		{"up stays up", false, up, up, false},
		{"down stays down", false, down, down, false},
		{"up to pending", false, up, pending, false},
		{"pending to up", false, pending, up, false},
		{"pending stays pending", false, pending, pending, false},
		{"maintenance stays", false, maint, maint, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isImportant(tc.first, tc.prev, tc.curr), tc.name)
	}
}

func TestIsImportantForNotify(t *testing.T) {
	up := shared.MonitorStatusUp
	down := shared.MonitorStatusDown
	pending := shared.MonitorStatusPending
	maint := shared.MonitorStatusMaintenance

	cases := []struct {
		name       string
		first      bool
		prev, curr shared.MonitorStatus
		want       bool
	}{
		{"first beat", true, down, pending, true},
		{"up to down", false, up, down, true},
		{"down to up", false, down, up, true},
		{"pending to down", false, pending, down, true},
		{"maintenance to down", false, maint, down, true},
		{"entering maintenance never notifies", false, up, maint, false},
		{"maintenance to up logs only", false, maint, up, false},
		{"up to pending", false, up, pending, false},
		{"steady up", false, up, up, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isImportantForNotify(tc.first, tc.prev, tc.curr), tc.name)
	}
}

// Every notify-worthy transition must also be log-worthy.
func TestNotifyImpliesImportant(t *testing.T) {
	statuses := []shared.MonitorStatus{
		shared.MonitorStatusDown,
		shared.MonitorStatusUp,
		shared.MonitorStatusPending,
		shared.MonitorStatusMaintenance,
	}
	for _, prev := range statuses {
		for _, curr := range statuses {
			if isImportantForNotify(false, prev, curr) {
				assert.True(t, isImportant(false, prev, curr), "%v -> %v", prev, curr)
			}
		}
	}
}
