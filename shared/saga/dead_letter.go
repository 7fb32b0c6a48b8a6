package saga

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
)

// SourceTopicKey is the metadata header recording where a dead-lettered
// message originally came from
const SourceTopicKey = "source_topic"

// DeadLetterRouter decorates an event handler with a per-channel retry
// budget. A message that keeps failing past the budget is republished,
// payload untouched, to the source topic's parallel dead-letter channel and
// the original delivery is acknowledged so the broker stops redelivering it.
// Messages already on a dead-letter channel are never routed again.
type DeadLetterRouter struct {
	inner      events.EventHandler
	publisher  events.Publisher
	maxRetries int
}

// NewDeadLetterRouter wraps handler with retry-then-dead-letter semantics.
// maxRetries counts additional immediate attempts after the first failure.
func NewDeadLetterRouter(inner events.EventHandler, publisher events.Publisher, maxRetries int) *DeadLetterRouter {
	return &DeadLetterRouter{
		inner:      inner,
		publisher:  publisher,
		maxRetries: maxRetries,
	}
}

// HandlerID implements events.EventHandler
func (r *DeadLetterRouter) HandlerID() string {
	return r.inner.HandlerID() + "-dlq"
}

// Handle implements events.EventHandler. A nil return acknowledges the
// delivery, including the case where the message was parked on the
// dead-letter channel.
func (r *DeadLetterRouter) Handle(ctx context.Context, event *events.Event) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err = r.inner.Handle(ctx, event); err == nil {
			return nil
		}
	}

	if event.Topic.IsDLQ() {
		// Never dead-letter a dead letter; surface the failure instead.
		return errors.Wrapf(err, "handler failed on dead-letter channel %s", event.Topic)
	}

	dead := event.Clone()
	dead.Topic = event.Topic.DLQ()
	dead.WithMetadata(SourceTopicKey, event.Topic.String())

	if pubErr := r.publisher.Publish(ctx, dead); pubErr != nil {
		// Could not park the message; keep the original in flight so the
		// broker redelivers it.
		return errors.Wrap(err, "failed to publish to dead-letter channel")
	}

	log.Printf("dead-lettered event %s from %s to %s after %d attempts: %v",
		event.ID, event.Topic, dead.Topic, r.maxRetries+1, err)
	return nil
}
