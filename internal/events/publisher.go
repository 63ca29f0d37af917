// Package events publishes domain events to Kafka for downstream consumers
// (search indexing, email, BI). Publishing is best-effort: a broker outage
// must never fail the originating request.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"wayfare/internal/observability"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Event types emitted by the platform.
const (
	TypeBookingCreated        = "booking.created"
	TypeBookingConfirmed      = "booking.confirmed"
	TypeBookingCancelled      = "booking.cancelled"
	TypePaymentSucceeded      = "payment.succeeded"
	TypePaymentRefunded       = "payment.refunded"
	TypeAccommodationApproved = "accommodation.approved"
	TypeAccommodationRejected = "accommodation.rejected"
	TypeReviewSubmitted       = "review.submitted"
	TypeReelPublished         = "reel.published"
	TypeUserRegistered        = "user.registered"
)

// Envelope is the wire format of a domain event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, key string, payload any) error
	Close() error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher connects a synchronous idempotent producer.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &kafkaPublisher{producer: producer, topic: topic, logger: logger}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	envelope := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(eventType)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.logger.WarnContext(ctx, "domain event publish failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return err
	}

	observability.DomainEventsPublished.WithLabelValues(eventType).Inc()
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

var _ Publisher = (*kafkaPublisher)(nil)
var _ Publisher = NoopPublisher{}
