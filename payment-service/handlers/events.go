package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/payment-service/application"
	"github.com/swiftcart/order-system/shared/events"
)

// PaymentEventHandlers consumes order.created: the asynchronous charge path
// that runs alongside the order service's direct call. The use case dedupes
// per order, so racing the direct call is safe.
type PaymentEventHandlers struct {
	processPayment *application.ProcessPayment
}

// NewPaymentEventHandlers creates new payment event handlers
func NewPaymentEventHandlers(processPayment *application.ProcessPayment) *PaymentEventHandlers {
	return &PaymentEventHandlers{processPayment: processPayment}
}

// HandlerID implements events.EventHandler
func (h *PaymentEventHandlers) HandlerID() string {
	return "payment-service-event-handler"
}

// Handle implements events.EventHandler
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.OrderCreatedTopic:
		return h.handleOrderCreated(ctx, event)
	default:
		return nil
	}
}

func (h *PaymentEventHandlers) handleOrderCreated(ctx context.Context, event *events.Event) error {
	var data events.OrderCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse order created data")
	}
	if err := data.Validate(); err != nil {
		return errors.Wrap(err, "invalid order created data")
	}

	_, err := h.processPayment.Execute(ctx, &application.ProcessPaymentCommand{
		OrderID:  data.OrderID.String(),
		Amount:   data.TotalAmount,
		Currency: data.Currency,
	})
	return err
}
