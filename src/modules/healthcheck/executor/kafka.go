package executor

import (
	"context"
	"fmt"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/IBM/sarama"
)

// KafkaProducerExecutor produces one test message and requires a broker ack.
type KafkaProducerExecutor struct{}

func NewKafkaProducerExecutor() *KafkaProducerExecutor {
	return &KafkaProducerExecutor{}
}

func (e *KafkaProducerExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Timeout = 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		cfg.Net.DialTimeout = time.Until(deadline)
	}

	producer, err := sarama.NewSyncProducer(m.KafkaBrokers, cfg)
	if err != nil {
		return nil, err
	}
	defer producer.Close()

	message := m.KafkaMessage
	if message == "" {
		message = `{"status": "ok"}`
	}

	partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: m.KafkaTopic,
		Value: sarama.StringEncoder(message),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   fmt.Sprintf("message delivered to partition %d at offset %d", partition, offset),
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
