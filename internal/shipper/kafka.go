package shipper

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

// KafkaSink forwards audit lines to a Kafka topic. Messages are keyed by
// branch so per-branch ordering survives partitioning.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink writing to the configured brokers and topic.
func NewKafkaSink(cfg models.KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Ship writes the batch in one WriteMessages call.
func (s *KafkaSink) Ship(ctx context.Context, branch string, entries []Entry) error {
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(branch),
			Value: e.Line,
		})
	}
	return s.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
