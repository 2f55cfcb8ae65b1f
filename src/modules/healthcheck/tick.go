package healthcheck

import (
	"context"
	"fmt"
	"time"

	"vigilo/src/modules/certificate"
	"vigilo/src/modules/events"
	"vigilo/src/modules/healthcheck/executor"
	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
)

// outerAbortSlack bounds a runaway probe driver that ignores its context.
const outerAbortSlack = 10 * time.Second

// runtime is the per-monitor beat state. A monitor's ticks are strictly
// serialized, so none of this needs locking.
type runtime struct {
	sup          *Supervisor
	mon          *monitor.Model
	previousBeat *heartbeat.Model
	retries      int
}

// safeTick is the outer safety shell: a bug inside a tick must never kill
// the runtime, it just reschedules after the regular interval.
func (r *runtime) safeTick(ctx context.Context) (next time.Duration) {
	next = time.Duration(normalizeInterval(r.mon.Interval, r.sup.demoMode)) * time.Second
	defer func() {
		if rec := recover(); rec != nil {
			r.sup.logger.Errorw("tick panicked", "monitor", r.mon.ID, "panic", rec)
		}
	}()
	return r.tick(ctx)
}

func normalizeInterval(interval int, demoMode bool) int {
	if interval < 1 {
		interval = 1
	}
	if demoMode && interval < 20 {
		interval = 20
	}
	return interval
}

func (r *runtime) tick(ctx context.Context) time.Duration {
	m := r.mon
	log := r.sup.logger

	beatInterval := normalizeInterval(m.Interval, r.sup.demoMode)
	timeoutSec := float64(m.Timeout)
	if timeoutSec <= 0 {
		timeoutSec = float64(beatInterval) * 0.8
	}
	defaultDelay := time.Duration(beatInterval) * time.Second

	now := time.Now().UTC()

	// Push monitors are fed externally, so their latest beat must always be
	// re-read from storage.
	if r.previousBeat == nil || m.Type == "push" {
		prev, err := r.sup.heartbeatSvc.FindLatestByMonitorID(ctx, m.ID)
		if err != nil {
			log.Errorw("load previous beat", "monitor", m.ID, "error", err)
			return defaultDelay
		}
		r.previousBeat = prev
	}
	prev := r.previousBeat
	first := prev == nil

	beat := &heartbeat.Model{
		MonitorID: m.ID,
		Status:    shared.MonitorStatusDown,
		Time:      now,
	}
	if !first {
		beat.DownCount = prev.DownCount
		beat.Duration = int(now.Sub(prev.Time).Seconds())
	}
	if m.UpsideDown {
		beat.Status = shared.MonitorStatusUp
	}

	underMaintenance, err := r.sup.isUnderMaintenance(ctx, m)
	if err != nil {
		log.Errorw("maintenance check", "monitor", m.ID, "error", err)
		return defaultDelay
	}

	var tlsInfo *certificate.TLSInfo
	probeFailed := false

	switch {
	case underMaintenance:
		beat.Status = shared.MonitorStatusMaintenance
		beat.Msg = "Monitor under maintenance"

	case m.Type == "push":
		remaining, err := checkPushWindow(prev, time.Duration(beatInterval)*time.Second, now)
		if err == nil {
			// The agent is still inside its window; no synthetic beat.
			return remaining
		}
		probeFailed = true
		beat.Msg = err.Error()

	case m.Type == "group":
		res, err := r.sup.resolveGroup(ctx, m)
		if err != nil {
			log.Errorw("resolve group", "monitor", m.ID, "error", err)
			return defaultDelay
		}
		beat.Status = res.Status
		beat.Msg = res.Message

	default:
		res, probeErr := r.probe(ctx, timeoutSec)
		if ctx.Err() != nil {
			// Runtime stopped while the probe was in flight; the loop is
			// draining and must not produce a beat.
			return defaultDelay
		}
		if probeErr != nil {
			probeFailed = true
			beat.Msg = probeErr.Error()
		} else {
			beat.Status = res.Status
			beat.Msg = res.Message
			beat.Ping = res.Ping
			tlsInfo = res.TLSInfo

			if m.UpsideDown {
				switch beat.Status {
				case shared.MonitorStatusUp:
					beat.Status = shared.MonitorStatusDown
					beat.Msg += " (inverted by upside-down mode)"
					probeFailed = true
				case shared.MonitorStatusDown:
					beat.Status = shared.MonitorStatusUp
				}
			}
		}
	}

	// Retry accounting. MAINTENANCE and group results bypass it entirely.
	if !underMaintenance && m.Type != "group" {
		if !probeFailed {
			r.retries = 0
		} else if m.UpsideDown && beat.Status == shared.MonitorStatusUp {
			// Probe error while upside-down: failure is the good state.
			r.retries = 0
		} else if r.retries < m.MaxRetries {
			r.retries++
			beat.Status = shared.MonitorStatusPending
		} else {
			beat.Status = shared.MonitorStatusDown
		}
	}

	if tlsInfo != nil {
		if err := r.sup.certSvc.UpdateTLSInfo(ctx, m.ID, tlsInfo); err != nil {
			log.Errorw("update tls info", "monitor", m.ID, "error", err)
		}
		if err := r.sup.certSvc.CheckCertificateExpiry(ctx, m, tlsInfo); err != nil {
			log.Errorw("cert expiry check", "monitor", m.ID, "error", err)
		}
	}

	if m.Type == "dns" && !probeFailed && beat.Msg != "" && beat.Msg != m.DNSLastResult {
		if err := r.sup.monitorSvc.UpdateDNSLastResult(ctx, m.ID, beat.Msg); err != nil {
			log.Errorw("persist dns result", "monitor", m.ID, "error", err)
		} else {
			m.DNSLastResult = beat.Msg
		}
	}

	prevStatus := shared.MonitorStatusDown
	if !first {
		prevStatus = prev.Status
	}
	if isImportant(first, prevStatus, beat.Status) {
		beat.Important = true
		if isImportantForNotify(first, prevStatus, beat.Status) {
			r.sup.preCmd.Run(ctx, m, beat.Status)
			r.sup.dispatcher.SendStatus(ctx, m, beat)
		}
		beat.DownCount = 0
		r.sup.statsSvc.InvalidateCache(m.ID)
		r.sup.bus.Publish(events.Event{Type: events.ImportantHeartbeat, Payload: beat})
	} else if beat.Status == shared.MonitorStatusDown && m.ResendInterval > 0 {
		beat.DownCount++
		if beat.DownCount >= m.ResendInterval {
			log.Infow("resending down notification", "monitor", m.ID, "down_count", beat.DownCount)
			r.sup.dispatcher.SendStatus(ctx, m, beat)
			beat.DownCount = 0
		}
	}

	r.sup.statsSvc.InvalidateCache(m.ID)
	r.publish(ctx, beat)

	if _, err := r.sup.heartbeatSvc.Create(ctx, beat); err != nil {
		log.Errorw("persist beat", "monitor", m.ID, "error", err)
		return defaultDelay
	}
	r.sup.metrics.Update(m, beat, tlsInfo)
	r.previousBeat = beat

	log.Debugw("beat",
		"monitor", m.ID,
		"status", beat.Status.String(),
		"msg", beat.Msg,
		"retries", r.retries,
	)

	if beat.Status == shared.MonitorStatusPending && m.RetryInterval > 0 {
		return time.Duration(m.RetryInterval) * time.Second
	}
	return defaultDelay
}

// probe dispatches to the registered driver under a context bound to the
// monitor timeout, with an outer abort guard for drivers that leak.
func (r *runtime) probe(ctx context.Context, timeoutSec float64) (*executor.Result, error) {
	m := r.mon
	exec, ok := r.sup.registry.Get(m.Type)
	if !ok {
		return nil, executor.ErrUnknownMonitorType
	}

	timeout := time.Duration(timeoutSec * float64(time.Second))
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res *executor.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := exec.Execute(probeCtx, m)
		ch <- outcome{res, err}
	}()

	timeoutMsg := fmt.Errorf("timeout by AbortSignal (%gs)", timeoutSec)
	select {
	case out := <-ch:
		if out.err != nil && probeCtx.Err() != nil {
			if ctx.Err() != nil {
				// Loop cancelled, not a probe deadline.
				return nil, ctx.Err()
			}
			return nil, timeoutMsg
		}
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout + outerAbortSlack):
		// Driver ignored its context; abandon it.
		return nil, timeoutMsg
	}
}

func (r *runtime) publish(ctx context.Context, beat *heartbeat.Model) {
	m := r.mon
	owner := m.OwnerID

	r.sup.ws.EmitToOwner(owner, "heartbeat", beat)

	// Stats are only worth computing when someone is watching.
	if !r.sup.ws.HasSubscribers(owner) {
		return
	}

	if avg, err := r.sup.statsSvc.AvgPing(ctx, m.ID, 24); err == nil {
		r.sup.ws.EmitToOwner(owner, "avgPing", map[string]any{
			"monitor_id": m.ID,
			"avg_ping":   avg,
		})
	}
	for _, window := range []int{24, 720} {
		if ratio, err := r.sup.statsSvc.Uptime(ctx, m.ID, window); err == nil {
			r.sup.ws.EmitToOwner(owner, "uptime", map[string]any{
				"monitor_id": m.ID,
				"period":     window,
				"uptime":     ratio,
			})
		}
	}
	if info, err := r.sup.tlsInfoSvc.FindByMonitorID(ctx, m.ID); err == nil && info != nil {
		r.sup.ws.EmitToOwner(owner, "certInfo", map[string]any{
			"monitor_id": m.ID,
			"tls_info":   info.InfoJSON,
		})
	}
}
