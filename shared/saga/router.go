// Package saga wires the order choreography together. There is no central
// coordinator: each service registers handlers for the topics it consumes and
// publishes the next event in the flow itself. Registration is explicit so
// the dispatch table is visible and testable.
package saga

import (
	"context"
	"log"

	"github.com/swiftcart/order-system/shared/events"
)

// EventRouter dispatches events to the handlers registered for their topic.
// It implements events.EventHandler so it can sit directly behind any
// subscriber (in-memory broker, SQS, Kafka).
type EventRouter struct {
	handlers map[events.Topic][]events.EventHandler
}

// NewEventRouter creates an empty router
func NewEventRouter() *EventRouter {
	return &EventRouter{
		handlers: make(map[events.Topic][]events.EventHandler),
	}
}

// Register binds a handler to a topic. Call during wiring, before delivery
// starts; the router is not safe for concurrent registration.
func (r *EventRouter) Register(topic events.Topic, handler events.EventHandler) {
	r.handlers[topic] = append(r.handlers[topic], handler)
}

// Topics returns every topic with at least one registered handler
func (r *EventRouter) Topics() []events.Topic {
	topics := make([]events.Topic, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	return topics
}

// HandlerID implements events.EventHandler
func (r *EventRouter) HandlerID() string {
	return "choreography-event-router"
}

// Handle routes an event to all handlers registered for its topic. The first
// handler error is returned so the delivery layer can retry or dead-letter
// the message.
func (r *EventRouter) Handle(ctx context.Context, event *events.Event) error {
	handlers, exists := r.handlers[event.Topic]
	if !exists {
		log.Printf("no handlers registered for topic %s", event.Topic)
		return nil
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
