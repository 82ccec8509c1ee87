// Package publisher announces risk level changes to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

// EventRiskChanged is the Type of events emitted when a user's level moves.
const EventRiskChanged = "risk.changed"

const defaultWriteTimeout = 5 * time.Second

// ErrNoBrokers is returned when a Kafka publisher is built without brokers.
var ErrNoBrokers = errors.New("no kafka brokers configured")

// Event is the JSON payload written for a risk change.
type Event struct {
	Type          string            `json:"type"`
	UserID        string            `json:"user_id"`
	PreviousLevel burnout.RiskLevel `json:"previous_level,omitempty"`
	RiskLevel     burnout.RiskLevel `json:"risk_level"`
	Score         float64           `json:"score"`
	CombinedScore string            `json:"combinedScore"`
	Trend         burnout.Trend     `json:"trend,omitempty"`
	At            time.Time         `json:"at"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic keyed by user id, so a user's
// events stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  logger.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// Option configures a KafkaPublisher.
type Option func(*KafkaPublisher)

// WithWriteTimeout bounds each publish.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *KafkaPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the publisher's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *KafkaPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// withWriter replaces the Kafka writer.
func withWriter(w messageWriter) Option {
	return func(p *KafkaPublisher) {
		p.writer = w
	}
}

// NewKafkaPublisher builds a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	p := &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		topic:   topic,
		timeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	return p, nil
}

// Publish encodes e and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.Type == "" {
		e.Type = EventRiskChanged
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: value, Time: e.At}); err != nil {
		metrics.RecordEventPublished("error")
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	metrics.RecordEventPublished("ok")
	p.logger.Debug(ctx, "risk event published",
		logger.String("topic", p.topic),
		logger.String("user_id", e.UserID),
		logger.String("risk_level", string(e.RiskLevel)),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

// Publish discards e.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
