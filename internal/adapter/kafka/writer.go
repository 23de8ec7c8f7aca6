package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/org-map-service/internal/config"
	"github.com/couchcryptid/org-map-service/internal/mapview"
)

// Writer produces map views to a Kafka topic.
// It implements mapview.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured view topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per view, keyed by town so that views of the
// same town land on the same partition.
func (w *Writer) Publish(ctx context.Context, view mapview.View) error {
	msg, err := serializeToMessage(view)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write map view: %w", err)
	}
	w.logger.Debug("map view published", "town", view.Town, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a View into a Kafka message.
func serializeToMessage(view mapview.View) (kafkago.Message, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize map view: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(view.Town),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "town", Value: []byte(view.Town)},
			{Key: "marker_count", Value: []byte(strconv.Itoa(len(view.Markers)))},
			{Key: "generated_at", Value: []byte(view.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
