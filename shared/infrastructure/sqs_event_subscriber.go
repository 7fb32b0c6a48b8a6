package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

const (
	sqsMessageIDKey     = "sqs_message_id"
	sqsReceiptHandleKey = "sqs_receipt_handle"
)

type sqsDelivery struct {
	Message types.Message
	Event   *events.Event
	Err     error
}

// SQSEventSubscriber drains one queue into one handler through a
// reader/worker/cleaner pipeline. Readers pull batches off SQS, workers run
// the handler, cleaners ack successes and push failures back with a
// growing visibility timeout so the broker redelivers them later.
type SQSEventSubscriber struct {
	mux        sync.Mutex
	deliveries chan *sqsDelivery
	finished   chan *sqsDelivery
	cancel     context.CancelFunc
	running    atomic.Bool
	options    *sqsSubscriberOptions

	client   *sqs.Client
	queueURL string
	handler  events.EventHandler
}

type sqsSubscriberOptions struct {
	workers                    int
	readers                    int
	cleaners                   int
	maxNumberOfMessages        int32
	waitTimeSeconds            int32
	visibilityTimeout          int32
	maxVisibilityTimeout       int32
	visibilityTimeoutStep      int32
	receiveCountRange          int32
	sleepTimeAfterEmptyReceive time.Duration
	sleepTimeAfterError        time.Duration
}

type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithSQSWorkers(workers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) { o.workers = workers }
}

func WithSQSReaders(readers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) { o.readers = readers }
}

func WithSQSVisibilityTimeout(timeout int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) { o.visibilityTimeout = timeout }
}

// NewSQSEventSubscriber creates a new SQS event subscriber
func NewSQSEventSubscriber(client *sqs.Client, queueURL string, handler events.EventHandler, opts ...SQSSubscriberOption) *SQSEventSubscriber {
	options := &sqsSubscriberOptions{
		workers:                    10,
		readers:                    1,
		cleaners:                   2,
		maxNumberOfMessages:        5,
		waitTimeSeconds:            15,
		visibilityTimeout:          30,
		maxVisibilityTimeout:       900,
		visibilityTimeoutStep:      30,
		receiveCountRange:          3,
		sleepTimeAfterEmptyReceive: 10 * time.Second,
		sleepTimeAfterError:        20 * time.Second,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &SQSEventSubscriber{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
		options:  options,
	}
}

// Start starts the pipeline
func (s *SQSEventSubscriber) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.running.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.deliveries = make(chan *sqsDelivery, 10)
	s.finished = make(chan *sqsDelivery, 10)

	for i := 0; i < s.options.workers; i++ {
		go s.runWorker(ctx)
	}
	for i := 0; i < s.options.readers; i++ {
		go s.runReader(ctx)
	}
	for i := 0; i < s.options.cleaners; i++ {
		go s.runCleaner(ctx)
	}

	s.running.Store(true)
	return nil
}

// Stop stops the pipeline
func (s *SQSEventSubscriber) Stop(_ context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !s.running.Load() {
		return nil
	}

	s.cancel()
	s.cancel = nil
	s.running.Store(false)
	return nil
}

func (s *SQSEventSubscriber) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery := <-s.deliveries:
			if delivery == nil {
				continue
			}
			handleCtx := correlation.Extract(ctx, delivery.Event)
			delivery.Err = s.handler.Handle(handleCtx, delivery.Event)
			select {
			case s.finished <- delivery:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *SQSEventSubscriber) runReader(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.read(ctx); err != nil {
				time.Sleep(s.options.sleepTimeAfterError)
			}
		}
	}
}

func (s *SQSEventSubscriber) runCleaner(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery := <-s.finished:
			if delivery == nil {
				continue
			}
			_ = s.clean(ctx, delivery)
		}
	}
}

func (s *SQSEventSubscriber) read(ctx context.Context) error {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: s.options.maxNumberOfMessages,
		WaitTimeSeconds:     s.options.waitTimeSeconds,
		VisibilityTimeout:   s.options.visibilityTimeout,
		AttributeNames: []types.QueueAttributeName{
			"ApproximateReceiveCount",
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to receive messages from SQS")
	}

	if len(output.Messages) == 0 {
		time.Sleep(s.options.sleepTimeAfterEmptyReceive)
		return nil
	}

	for _, message := range output.Messages {
		event, err := decodeSQSBody([]byte(aws.ToString(message.Body)))
		if err != nil {
			// Malformed body; leave it to expire into the queue's own DLQ
			continue
		}

		event.Metadata.Set(sqsMessageIDKey, aws.ToString(message.MessageId))
		event.Metadata.Set(sqsReceiptHandleKey, aws.ToString(message.ReceiptHandle))
		for k, v := range message.MessageAttributes {
			if v.StringValue != nil {
				event.Metadata.Set(k, *v.StringValue)
			}
		}

		select {
		case s.deliveries <- &sqsDelivery{Message: message, Event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// clean acks handled messages and defers failed ones. The growing visibility
// timeout spaces out broker redeliveries until the dead-letter router gives
// up on the message.
func (s *SQSEventSubscriber) clean(ctx context.Context, delivery *sqsDelivery) error {
	if delivery.Err != nil {
		receiveCount, err := strconv.Atoi(delivery.Message.Attributes["ApproximateReceiveCount"])
		if err != nil {
			receiveCount = 1
		}

		visibilityTimeout := s.options.visibilityTimeout
		visibilityTimeout += (int32(receiveCount) / s.options.receiveCountRange) * s.options.visibilityTimeoutStep
		if visibilityTimeout > s.options.maxVisibilityTimeout {
			visibilityTimeout = s.options.maxVisibilityTimeout
		}

		_, err = s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          &s.queueURL,
			ReceiptHandle:     delivery.Message.ReceiptHandle,
			VisibilityTimeout: visibilityTimeout,
		})
		if err != nil {
			return errors.Wrap(err, "failed to extend visibility timeout")
		}
		return nil
	}

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &s.queueURL,
		ReceiptHandle: delivery.Message.ReceiptHandle,
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete message from SQS")
	}
	return nil
}

// decodeSQSBody decodes either the SNS publisher envelope or a bare event
func decodeSQSBody(body []byte) (*events.Event, error) {
	var envelope snsMessage
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Topic != "" {
		event := &events.Event{
			ID:            models.ID(envelope.ID),
			AggregateID:   models.ID(envelope.AggregateID),
			Topic:         events.Topic(envelope.Topic),
			Data:          envelope.Payload,
			Metadata:      envelope.Metadata,
			Timestamp:     envelope.Timestamp,
			CorrelationID: models.ID(envelope.CorrelationID),
		}
		if event.Metadata == nil {
			event.Metadata = make(events.Metadata)
		}
		return event, nil
	}

	event, err := events.FromJSON(body)
	if err != nil {
		return nil, err
	}
	if event.Metadata == nil {
		event.Metadata = make(events.Metadata)
	}
	return event, nil
}
