package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/config"
	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces incident lifecycle events to a Kafka topic.
// It implements domain.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes a single event. Events about the same incident (or, for an
// orphaned address, the same address) share a key and so a partition.
func (p *Publisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	p.logger.Debug("lifecycle event published", "event_type", event.Type, "event_id", event.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a LifecycleEvent into a Kafka message.
func serializeToMessage(event domain.LifecycleEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize lifecycle event: %w", err)
	}
	return kafkago.Message{
		Key:   messageKey(event),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}

func messageKey(event domain.LifecycleEvent) []byte {
	if event.IncidentID > 0 {
		return []byte("incident-" + strconv.FormatInt(event.IncidentID, 10))
	}
	return []byte("address-" + strconv.FormatInt(event.AddressID, 10))
}
