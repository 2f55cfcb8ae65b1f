package push

import (
	"net/http"
	"strconv"
	"time"

	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
	"vigilo/src/modules/stats"
	"vigilo/src/modules/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controller ingests agent-side heartbeats. The push probe only inspects the
// stored rows, so this is the sole write path for push monitors' UP beats.
type Controller struct {
	monitorSvc   monitor.Service
	heartbeatSvc heartbeat.Service
	statsSvc     stats.Service
	ws           *websocket.Server
	logger       *zap.SugaredLogger
}

func NewController(
	monitorSvc monitor.Service,
	heartbeatSvc heartbeat.Service,
	statsSvc stats.Service,
	ws *websocket.Server,
	logger *zap.SugaredLogger,
) *Controller {
	return &Controller{
		monitorSvc:   monitorSvc,
		heartbeatSvc: heartbeatSvc,
		statsSvc:     statsSvc,
		ws:           ws,
		logger:       logger.With("service", "[push]"),
	}
}

func (c *Controller) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/push/:token", c.handlePush)
}

func (c *Controller) handlePush(g *gin.Context) {
	ctx := g.Request.Context()

	mon, err := c.monitorSvc.FindByPushToken(ctx, g.Param("token"))
	if err != nil {
		c.logger.Errorw("lookup push token", "error", err)
		g.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	if mon == nil || !mon.Active {
		g.JSON(http.StatusNotFound, gin.H{"ok": false, "msg": "monitor not found"})
		return
	}

	status := shared.MonitorStatusUp
	if g.DefaultQuery("status", "up") == "down" {
		status = shared.MonitorStatusDown
	}
	msg := g.DefaultQuery("msg", "OK")

	var ping *int
	if raw := g.Query("ping"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			ping = &n
		}
	}

	now := time.Now().UTC()
	beat := &heartbeat.Model{
		MonitorID: mon.ID,
		Status:    status,
		Msg:       msg,
		Ping:      ping,
		Time:      now,
	}

	prev, err := c.heartbeatSvc.FindLatestByMonitorID(ctx, mon.ID)
	if err != nil {
		c.logger.Errorw("load previous beat", "monitor", mon.ID, "error", err)
		g.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	if prev != nil {
		beat.Duration = int(now.Sub(prev.Time).Seconds())
	}
	if prev == nil || prev.Status != status {
		beat.Important = true
		c.statsSvc.InvalidateCache(mon.ID)
	}

	if _, err := c.heartbeatSvc.Create(ctx, beat); err != nil {
		c.logger.Errorw("persist push beat", "monitor", mon.ID, "error", err)
		g.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.ws.EmitToOwner(mon.OwnerID, "heartbeat", beat)
	g.JSON(http.StatusOK, gin.H{"ok": true})
}
