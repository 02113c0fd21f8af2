// Package kafka publishes widget events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/logger"
)

const defaultWriteTimeout = 10 * time.Second

// Config is the Kafka publisher configuration.
type Config struct {
	// Brokers are the bootstrap broker addresses, e.g. "localhost:9092".
	Brokers []string

	// Topic receives every widget event.
	Topic string

	// WriteTimeout bounds a single publish (defaults to 10s).
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes widget events as JSON messages keyed by widget ID, so every
// event for a widget lands on the same partition.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Kafka backed publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, c), nil
}

func newPublisher(w messageWriter, c Config) *Publisher {
	p := &Publisher{
		writer:  w,
		topic:   c.Topic,
		timeout: c.WriteTimeout,
		logger:  c.Logger,
	}
	if p.timeout <= 0 {
		p.timeout = defaultWriteTimeout
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	return p
}

// PublishWidget writes event to the configured topic.
func (p *Publisher) PublishWidget(ctx context.Context, event *eventstream.WidgetEvent) error {
	if event == nil {
		return eventstream.ErrNilWidgetEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling widget event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.Widget.ID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(strconv.Itoa(event.SchemaVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}

	p.logger.Debug("widget event published",
		"topic", p.topic,
		"event_id", event.EventID,
		"widget_id", event.Widget.ID,
	)

	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
