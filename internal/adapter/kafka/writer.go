package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes normalized records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newWriter(w, logger, metrics, clock)
}

func newWriter(w messageWriter, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Writer {
	return &Writer{writer: w, logger: logger, metrics: metrics, clock: clock}
}

// Load serializes and publishes one record. Records for the same city share
// a key so they land on the same partition.
func (w *Writer) Load(ctx context.Context, rec domain.Record) error {
	msg, err := serializeToMessage(rec, w.clock.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	w.metrics.RecordsPublished.Inc()
	w.logger.Debug("record published", "country", rec.Country, "city", rec.City)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func messageKey(rec domain.Record) string {
	return rec.Country + "/" + rec.City
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(rec)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(rec.Region)},
			{Key: "published_at", Value: []byte(publishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
