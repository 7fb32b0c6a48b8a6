package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
)

// KafkaEventPublisher publishes choreography events to Kafka, one Kafka
// topic per event channel. The message key is the aggregate (order) id, so
// Kafka's partitioner keeps one order's events on one partition and a
// consumer group sees them in production order.
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

var _ events.Publisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher creates a publisher against the given brokers
func NewKafkaEventPublisher(brokers []string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish implements events.Publisher
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	messages := make([]kafka.Message, len(evts))
	for i, event := range evts {
		body, err := event.ToJSON()
		if err != nil {
			return errors.Wrap(err, "failed to marshal event")
		}

		headers := make([]kafka.Header, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}

		messages[i] = kafka.Message{
			Topic:   event.Topic.String(),
			Key:     []byte(event.AggregateID.String()),
			Value:   body,
			Headers: headers,
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return errors.Wrap(err, "failed to write messages to kafka")
	}
	return nil
}

// Close closes the underlying writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// KafkaEventSubscriber consumes one Kafka topic per Subscribe call within a
// consumer group. Offsets commit only after the handler returns, so an
// uncommitted failure is redelivered: at-least-once, absorbed by consumer
// idempotency.
type KafkaEventSubscriber struct {
	brokers []string
	groupID string
	cancels []context.CancelFunc
}

var _ events.Subscriber = (*KafkaEventSubscriber)(nil)

// NewKafkaEventSubscriber creates a subscriber for the given consumer group
func NewKafkaEventSubscriber(brokers []string, groupID string) *KafkaEventSubscriber {
	return &KafkaEventSubscriber{
		brokers: brokers,
		groupID: groupID,
	}
}

// Subscribe implements events.Subscriber
func (s *KafkaEventSubscriber) Subscribe(ctx context.Context, topic events.Topic, handler events.EventHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     s.brokers,
		GroupID:     s.groupID,
		Topic:       topic.String(),
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	ctx, cancel := context.WithCancel(ctx)
	s.cancels = append(s.cancels, cancel)

	go s.consume(ctx, reader, handler)
	return nil
}

func (s *KafkaEventSubscriber) consume(ctx context.Context, reader *kafka.Reader, handler events.EventHandler) {
	defer reader.Close()

	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		event, err := events.FromJSON(message.Value)
		if err != nil {
			// Unparseable message: commit past it, nothing downstream can
			// do better.
			_ = reader.CommitMessages(ctx, message)
			continue
		}
		if event.Metadata == nil {
			event.Metadata = make(events.Metadata)
		}
		for _, h := range message.Headers {
			event.Metadata.Set(h.Key, string(h.Value))
		}

		handleCtx := correlation.Extract(ctx, event)
		if err := handler.Handle(handleCtx, event); err != nil {
			// Leave the offset uncommitted; the group redelivers after
			// rebalance or restart.
			continue
		}

		_ = reader.CommitMessages(ctx, message)
	}
}

// Close stops all consumers
func (s *KafkaEventSubscriber) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}
