package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	EventAlertCreated     = "alert.created"
	EventAlertEscalated   = "alert.escalated"
	EventScreenerPositive = "screener.positive"

	eventSource  = "wellbeing-service"
	eventVersion = "1.0"
)

// Event is a domain event published after a clinical state change commits
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Tenant    string                 `json:"tenant"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent stamps a new event with id, source, version and time
func NewEvent(eventType, tenant string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Tenant:    tenant,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// WatermillPublisher publishes events to the topic named after the event type
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, logger: logger}
}

// NewKafkaPublisher publishes to Kafka brokers
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*WatermillPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return NewWatermillPublisher(pub, logger), nil
}

// NewInProcessPublisher publishes to an in-memory channel, for deployments without a broker
func NewInProcessPublisher(logger *slog.Logger) (*WatermillPublisher, *gochannel.GoChannel) {
	ch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return NewWatermillPublisher(ch, logger), ch
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", event.Type)
	msg.Metadata.Set("tenant", event.Tenant)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "type", event.Type, "tenant", event.Tenant)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
