package executor

import (
	"context"
	"errors"
	"time"

	"vigilo/src/modules/certificate"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"go.uber.org/zap"
)

// ErrUnknownMonitorType is returned when no executor is registered for a
// monitor's type.
var ErrUnknownMonitorType = errors.New("Unknown Monitor Type")

// Result is the outcome of one probe. StartTime/EndTime bound the probe
// itself; Ping is the type-specific latency in milliseconds when measurable.
type Result struct {
	Status    shared.MonitorStatus
	Message   string
	Ping      *int
	TLSInfo   *certificate.TLSInfo
	StartTime time.Time
	EndTime   time.Time
}

func pingMs(d time.Duration) *int {
	ms := int(d.Milliseconds())
	return &ms
}

// Executor probes one monitor type. Execute must respect ctx cancellation
// and return an error for a failed probe; the runtime turns errors into
// DOWN/PENDING beats.
type Executor interface {
	Execute(ctx context.Context, m *monitor.Model) (*Result, error)
}

// Registry dispatches monitor types to their executors. Adding a driver is
// additive.
type Registry struct {
	executors map[string]Executor
}

func NewRegistry(logger *zap.SugaredLogger) *Registry {
	r := &Registry{executors: make(map[string]Executor)}

	httpExec := NewHTTPExecutor(logger)
	r.Register("http", httpExec)
	r.Register("keyword", httpExec)
	r.Register("json-query", httpExec)
	r.Register("port", NewTCPExecutor())
	r.Register("ping", NewPingExecutor())
	r.Register("dns", NewDNSExecutor())
	r.Register("docker", NewDockerExecutor())
	r.Register("mqtt", NewMQTTExecutor())
	r.Register("kafka-producer", NewKafkaProducerExecutor())
	r.Register("mysql", NewSQLExecutor("mysql"))
	r.Register("postgres", NewSQLExecutor("postgres"))
	r.Register("sqlserver", NewSQLExecutor("sqlserver"))
	r.Register("mongodb", NewMongoDBExecutor())
	r.Register("redis", NewRedisExecutor())
	r.Register("grpc-keyword", NewGRPCKeywordExecutor())
	r.Register("snmp", NewSNMPExecutor())
	r.Register("radius", NewRadiusExecutor())
	r.Register("steam", NewSteamExecutor(logger))
	r.Register("gamedig", NewGamedigExecutor())

	return r
}

func (r *Registry) Register(monitorType string, e Executor) {
	r.executors[monitorType] = e
}

func (r *Registry) Get(monitorType string) (Executor, bool) {
	e, ok := r.executors[monitorType]
	return e, ok
}
