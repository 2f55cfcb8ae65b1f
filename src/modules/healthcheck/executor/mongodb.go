package executor

import (
	"context"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDBExecutor connects and runs either the configured command or a
// server-level ping.
type MongoDBExecutor struct{}

func NewMongoDBExecutor() *MongoDBExecutor {
	return &MongoDBExecutor{}
}

func (e *MongoDBExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.DatabaseConnectionString))
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if m.DatabaseQuery != "" {
		var cmd bson.D
		if err := bson.UnmarshalExtJSON([]byte(m.DatabaseQuery), true, &cmd); err != nil {
			return nil, err
		}
		if err := client.Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
			return nil, err
		}
	} else if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   "connection established",
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
