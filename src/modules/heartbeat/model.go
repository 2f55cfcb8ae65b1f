package heartbeat

import (
	"time"

	"vigilo/src/modules/shared"

	"github.com/uptrace/bun"
)

// Model is one probe outcome for a monitor. Rows are append-only.
type Model struct {
	bun.BaseModel `bun:"table:heartbeats,alias:hb"`

	ID        string               `bun:"id,pk" json:"id"`
	MonitorID string               `bun:"monitor_id" json:"monitor_id"`
	Status    shared.MonitorStatus `bun:"status" json:"status"`
	Msg       string               `bun:"msg" json:"msg"`

	// Ping is the probe latency in milliseconds; nil when not measurable.
	Ping *int `bun:"ping,nullzero" json:"ping"`

	// Duration is the whole seconds elapsed since this monitor's previous
	// heartbeat; 0 for the first beat.
	Duration int `bun:"duration" json:"duration"`

	Important bool `bun:"important" json:"important"`

	// DownCount counts consecutive non-important DOWN beats toward the
	// resend interval; reset to 0 on every important beat.
	DownCount int `bun:"down_count" json:"down_count"`

	Time time.Time `bun:"time" json:"time"`
}
