package infra

import (
	"context"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/maintenance"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/monitor_notification"
	"vigilo/src/modules/monitor_tls_info"
	"vigilo/src/modules/notification_channel"
	"vigilo/src/modules/notification_sent_history"
	"vigilo/src/modules/setting"

	"github.com/uptrace/bun"
)

// EnsureSchema creates missing tables on boot.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*monitor.Model)(nil),
		(*heartbeat.Model)(nil),
		(*maintenance.Model)(nil),
		(*monitor_tls_info.Model)(nil),
		(*notification_sent_history.Model)(nil),
		(*notification_channel.Model)(nil),
		(*monitor_notification.Model)(nil),
		(*setting.Model)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
