package healthcheck

import "vigilo/src/modules/shared"

// isImportant reports whether a beat is worth logging as a state change.
//
//	first beat            -> important
//	UP <-> DOWN           -> important
//	PENDING -> DOWN       -> important
//	UP/DOWN -> MAINTENANCE -> important
//	MAINTENANCE -> UP/DOWN -> important
func isImportant(first bool, prev, curr shared.MonitorStatus) bool {
	if first {
		return true
	}
	switch {
	case prev == shared.MonitorStatusUp && curr == shared.MonitorStatusDown:
		return true
	case prev == shared.MonitorStatusDown && curr == shared.MonitorStatusUp:
		return true
	case prev == shared.MonitorStatusPending && curr == shared.MonitorStatusDown:
		return true
	case prev == shared.MonitorStatusUp && curr == shared.MonitorStatusMaintenance:
		return true
	case prev == shared.MonitorStatusDown && curr == shared.MonitorStatusMaintenance:
		return true
	case prev == shared.MonitorStatusMaintenance && curr == shared.MonitorStatusUp:
		return true
	case prev == shared.MonitorStatusMaintenance && curr == shared.MonitorStatusDown:
		return true
	}
	return false
}

// isImportantForNotify is the subset of important beats that triggers
// notifications. Entering MAINTENANCE never notifies; leaving it notifies
// only when the monitor comes back DOWN.
func isImportantForNotify(first bool, prev, curr shared.MonitorStatus) bool {
	if first {
		return true
	}
	switch {
	case prev == shared.MonitorStatusUp && curr == shared.MonitorStatusDown:
		return true
	case prev == shared.MonitorStatusDown && curr == shared.MonitorStatusUp:
		return true
	case prev == shared.MonitorStatusPending && curr == shared.MonitorStatusDown:
		return true
	case prev == shared.MonitorStatusMaintenance && curr == shared.MonitorStatusDown:
		return true
	}
	return false
}
