package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vigilo/src/config"
	"vigilo/src/infra"
	"vigilo/src/modules/certificate"
	"vigilo/src/modules/cleanup"
	"vigilo/src/modules/events"
	"vigilo/src/modules/healthcheck"
	"vigilo/src/modules/healthcheck/executor"
	"vigilo/src/modules/heartbeat"
	"vigilo/src/modules/maintenance"
	"vigilo/src/modules/metrics"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/monitor_notification"
	"vigilo/src/modules/monitor_tls_info"
	"vigilo/src/modules/notification_channel"
	"vigilo/src/modules/notification_sent_history"
	"vigilo/src/modules/push"
	"vigilo/src/modules/setting"
	"vigilo/src/modules/stats"
	"vigilo/src/modules/websocket"
	"vigilo/src/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func buildContainer() (*dig.Container, error) {
	c := dig.New()

	providers := []any{
		config.Load,
		infra.ProvideLogger,
		infra.ProvideDB,
		events.NewEventBus,
		metrics.NewSink,
		websocket.NewServer,

		monitor.NewRepository,
		func(repo monitor.Repository, cfg *config.Config, bus *events.EventBus, logger *zap.SugaredLogger) monitor.Service {
			return monitor.NewService(repo, cfg.MinIntervalSeconds, cfg.MaxIntervalSeconds, bus, logger)
		},
		heartbeat.NewRepository,
		heartbeat.NewService,
		maintenance.NewService,
		setting.NewService,
		monitor_tls_info.NewService,
		notification_sent_history.NewService,
		monitor_notification.NewService,
		notification_channel.NewRepository,
		func(cfg *config.Config) (*time.Location, error) {
			return time.LoadLocation(cfg.Timezone)
		},
		notification_channel.NewDispatcher,
		notification_channel.NewPreCommandRunner,
		func(d *notification_channel.Dispatcher) certificate.Notifier { return d },
		certificate.NewService,
		stats.NewService,
		executor.NewRegistry,
		cleanup.NewService,
		push.NewController,

		func(
			monitorSvc monitor.Service,
			heartbeatSvc heartbeat.Service,
			maintenanceSvc maintenance.Service,
			statsSvc stats.Service,
			certSvc certificate.Service,
			tlsInfoSvc monitor_tls_info.Service,
			registry *executor.Registry,
			dispatcher *notification_channel.Dispatcher,
			preCmd *notification_channel.PreCommandRunner,
			ws *websocket.Server,
			sink *metrics.Sink,
			bus *events.EventBus,
			cfg *config.Config,
			logger *zap.SugaredLogger,
		) *healthcheck.Supervisor {
			return healthcheck.NewSupervisor(
				monitorSvc, heartbeatSvc, maintenanceSvc, statsSvc, certSvc,
				tlsInfoSvc, registry, dispatcher, preCmd, ws, sink, bus,
				cfg.DemoMode, logger,
			)
		},
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type serverDeps struct {
	dig.In

	Cfg        *config.Config
	Logger     *zap.SugaredLogger
	DB         *bun.DB
	Supervisor *healthcheck.Supervisor
	Cleanup    *cleanup.Service
	Push       *push.Controller
	WS         *websocket.Server
	Metrics    *metrics.Sink
}

func serve(c *dig.Container) error {
	return c.Invoke(func(deps serverDeps) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := deps.Logger.With("service", "[server]")
		log.Infof("vigilo %s starting", version.Version)

		if err := infra.EnsureSchema(ctx, deps.DB); err != nil {
			return err
		}

		if err := deps.Supervisor.StartAll(ctx); err != nil {
			return err
		}
		if err := deps.Cleanup.Start(); err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(cors.Default())

		router.GET("/healthz", func(g *gin.Context) {
			g.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
		})
		deps.Push.RegisterRoutes(router)
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
		router.Any("/socket.io/*any", gin.WrapH(deps.WS.Handler()))

		srv := &http.Server{
			Addr:    ":" + deps.Cfg.Port,
			Handler: router,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("listen on %s: %v", srv.Addr, err)
			}
		}()
		log.Infof("listening on %s", srv.Addr)

		<-ctx.Done()
		log.Info("shutting down")

		deps.Supervisor.Shutdown()
		deps.Cleanup.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func main() {
	app := &cli.App{
		Name:    "vigilo",
		Usage:   "uptime and health monitoring service",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the monitoring server",
				Action: func(*cli.Context) error {
					c, err := buildContainer()
					if err != nil {
						return err
					}
					return serve(c)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
