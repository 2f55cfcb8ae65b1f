package healthcheck

import (
	"context"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
)

type groupResult struct {
	Status  shared.MonitorStatus
	Message string
}

// resolveGroup derives a group monitor's status from the latest heartbeat of
// each active direct child. Nested groups contribute through their own
// runtime's beats, so one level is enough here.
func (s *Supervisor) resolveGroup(ctx context.Context, m *monitor.Model) (*groupResult, error) {
	children, err := s.monitorSvc.FindChildren(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	active := make([]*monitor.Model, 0, len(children))
	for _, c := range children {
		if c.Active {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return &groupResult{Status: shared.MonitorStatusPending, Message: "Group empty"}, nil
	}

	status := shared.MonitorStatusUp
	for _, child := range active {
		last, err := s.heartbeatSvc.FindLatestByMonitorID(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case last == nil:
			// Child has never produced a beat; the group cannot claim UP.
			if status == shared.MonitorStatusUp {
				status = shared.MonitorStatusPending
			}
		case last.Status == shared.MonitorStatusDown:
			status = shared.MonitorStatusDown
		case last.Status == shared.MonitorStatusPending:
			if status == shared.MonitorStatusUp {
				status = shared.MonitorStatusPending
			}
		}
	}

	res := &groupResult{Status: status}
	switch status {
	case shared.MonitorStatusUp:
		res.Message = "All children up and running"
	default:
		res.Message = "Child inaccessible"
	}
	return res, nil
}
