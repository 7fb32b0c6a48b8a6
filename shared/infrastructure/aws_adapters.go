package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
)

// SNSPublisherAdapter exposes the SNS publisher behind events.Publisher,
// owning AWS client construction. Works against LocalStack when the AWS
// endpoint env vars point at it.
type SNSPublisherAdapter struct {
	publisher *SNSEventPublisher
}

var _ events.Publisher = (*SNSPublisherAdapter)(nil)

// NewSNSPublisherAdapter creates a new SNS publisher adapter
func NewSNSPublisherAdapter(ctx context.Context, topicArn string) (*SNSPublisherAdapter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return &SNSPublisherAdapter{
		publisher: NewSNSEventPublisher(sns.NewFromConfig(cfg), topicArn),
	}, nil
}

// Publish implements events.Publisher
func (p *SNSPublisherAdapter) Publish(ctx context.Context, evts ...*events.Event) error {
	return p.publisher.Publish(ctx, evts...)
}

// Close closes the publisher
func (p *SNSPublisherAdapter) Close() error {
	return nil
}

// SQSSubscriberAdapter exposes the SQS subscriber behind events.Subscriber.
// One queue carries every choreography topic; the handler (the saga event
// router) fans deliveries out by topic, so the topic argument to Subscribe is
// informational only.
type SQSSubscriberAdapter struct {
	subscriber *SQSEventSubscriber
	queueURL   string
	running    bool
}

var _ events.Subscriber = (*SQSSubscriberAdapter)(nil)

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter
func NewSQSSubscriberAdapter(queueURL string) *SQSSubscriberAdapter {
	return &SQSSubscriberAdapter{queueURL: queueURL}
}

// Subscribe implements events.Subscriber and starts the pipeline
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, _ events.Topic, handler events.EventHandler) error {
	if s.running {
		return errors.New("subscriber is already running")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}

	s.subscriber = NewSQSEventSubscriber(sqs.NewFromConfig(cfg), s.queueURL, handler)
	if err := s.subscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.running = true
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close() error {
	if !s.running || s.subscriber == nil {
		return nil
	}
	if err := s.subscriber.Stop(context.Background()); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}
	s.running = false
	return nil
}
