// Package kafka publishes hotspot load and selection events.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/config"
	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces domain events to a Kafka topic. Writes are asynchronous;
// delivery failures are logged and counted but never reach the caller.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured event topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{logger: logger, metrics: metrics}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// Publish enqueues events. Only serialization errors are returned.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) completed(msgs []kafkago.Message, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		p.logger.Warn("publish events failed", "count", len(msgs), "error", err)
	}
	for _, m := range msgs {
		p.metrics.EventsPublished.WithLabelValues(header(m, "event_type"), outcome).Inc()
	}
}

// serializeToMessage marshals an Event into a Kafka message keyed by festival,
// so all events of one festival land on the same partition in order.
func serializeToMessage(event domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s event: %w", event.Type, err)
	}
	return kafkago.Message{
		Key:   []byte(event.Festival),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
