package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shipping-service/application"
)

// ShippingEventHandlers consumes shipping.requested
type ShippingEventHandlers struct {
	arrangeShipment *application.ArrangeShipment
}

// NewShippingEventHandlers creates new shipping event handlers
func NewShippingEventHandlers(arrangeShipment *application.ArrangeShipment) *ShippingEventHandlers {
	return &ShippingEventHandlers{arrangeShipment: arrangeShipment}
}

// HandlerID implements events.EventHandler
func (h *ShippingEventHandlers) HandlerID() string {
	return "shipping-service-event-handler"
}

// Handle implements events.EventHandler
func (h *ShippingEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.ShippingRequestedTopic:
		return h.handleShippingRequested(ctx, event)
	default:
		return nil
	}
}

func (h *ShippingEventHandlers) handleShippingRequested(ctx context.Context, event *events.Event) error {
	var data events.ShippingRequestedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse shipping requested data")
	}
	if err := data.Validate(); err != nil {
		return errors.Wrap(err, "invalid shipping requested data")
	}

	return h.arrangeShipment.Execute(ctx, &application.ArrangeShipmentCommand{
		OrderID: data.OrderID.String(),
	})
}
