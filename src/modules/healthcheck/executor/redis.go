package executor

import (
	"context"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/redis/go-redis/v9"
)

// RedisExecutor issues a PING against the configured server.
type RedisExecutor struct{}

func NewRedisExecutor() *RedisExecutor {
	return &RedisExecutor{}
}

func (e *RedisExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	opts, err := redis.ParseURL(m.DatabaseConnectionString)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	defer client.Close()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   pong,
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
