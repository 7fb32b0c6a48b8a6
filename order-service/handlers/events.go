package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/application"
	"github.com/swiftcart/order-system/shared/events"
)

// OrderEventHandlers consumes the order service's side of the choreography:
// the shipment-arranged event that closes the loop.
type OrderEventHandlers struct {
	closeOrder *application.CloseOrder
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(closeOrder *application.CloseOrder) *OrderEventHandlers {
	return &OrderEventHandlers{closeOrder: closeOrder}
}

// HandlerID implements events.EventHandler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements events.EventHandler
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.ShipmentArrangedTopic:
		return h.handleShipmentArranged(ctx, event)
	default:
		return nil
	}
}

func (h *OrderEventHandlers) handleShipmentArranged(ctx context.Context, event *events.Event) error {
	var data events.ShipmentArrangedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse shipment arranged data")
	}
	if err := data.Validate(); err != nil {
		return errors.Wrap(err, "invalid shipment arranged data")
	}

	return h.closeOrder.Execute(ctx, &application.CloseOrderCommand{
		OrderID:        data.OrderID,
		ShipmentID:     data.ShipmentID,
		TrackingNumber: data.TrackingNumber,
	})
}
