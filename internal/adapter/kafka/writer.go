package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/dining-data-service/internal/config"
	"github.com/couchcryptid/dining-data-service/internal/domain"
)

// Writer publishes location snapshots to a Kafka topic.
// It implements scheduler.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger.With("component", "kafka_writer")}
}

// PublishSnapshots writes one message per snapshot in a single
// WriteMessages call. Messages are keyed by slug so every snapshot of a
// location lands on the same partition.
func (w *Writer) PublishSnapshots(ctx context.Context, snapshots []domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshots))
	for i := range snapshots {
		msg, err := serializeToMessage(snapshots[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}
	w.logger.Debug("snapshots published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(s domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot %q: %w", s.Slug, err)
	}
	return kafkago.Message{
		Key:   []byte(s.Slug),
		Value: data,
		Time:  s.At,
		Headers: []kafkago.Header{
			{Key: "slug", Value: []byte(s.Slug)},
			{Key: "evaluated_at", Value: []byte(s.At.UTC().Format(time.RFC3339))},
			{Key: "message_id", Value: []byte(uuid.NewString())},
		},
	}, nil
}
