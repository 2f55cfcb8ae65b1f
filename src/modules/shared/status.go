package shared

// MonitorStatus is the classified outcome of a single beat.
type MonitorStatus int

const (
	MonitorStatusDown        MonitorStatus = 0
	MonitorStatusUp          MonitorStatus = 1
	MonitorStatusPending     MonitorStatus = 2
	MonitorStatusMaintenance MonitorStatus = 3
)

func (s MonitorStatus) String() string {
	switch s {
	case MonitorStatusDown:
		return "down"
	case MonitorStatusUp:
		return "up"
	case MonitorStatusPending:
		return "pending"
	case MonitorStatusMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}
