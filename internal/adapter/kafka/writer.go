package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// Writer produces newly inserted fire detections to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured detection topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the inserted detections in a single
// WriteMessages call. Records are keyed by scene time so consumers see each
// scene's detections in partition order.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.FireDetection) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write detection messages: %w", err)
	}
	w.logger.Info("detections published", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a detection into a Kafka message.
func serializeToMessage(rec domain.FireDetection) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fire detection: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.SceneTime.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_id", Value: []byte(strconv.FormatInt(rec.ID, 10))},
			{Key: "obtained_at", Value: []byte(rec.ObtainedAt.Format(time.RFC3339))},
		},
	}, nil
}
