package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/notification-service/application"
	"github.com/swiftcart/order-system/shared/events"
)

// NotificationEventHandlers consumes payment.completed
type NotificationEventHandlers struct {
	notifyPaymentCompleted *application.NotifyPaymentCompleted
}

// NewNotificationEventHandlers creates new notification event handlers
func NewNotificationEventHandlers(notifyPaymentCompleted *application.NotifyPaymentCompleted) *NotificationEventHandlers {
	return &NotificationEventHandlers{notifyPaymentCompleted: notifyPaymentCompleted}
}

// HandlerID implements events.EventHandler
func (h *NotificationEventHandlers) HandlerID() string {
	return "notification-service-event-handler"
}

// Handle implements events.EventHandler
func (h *NotificationEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.PaymentCompletedTopic:
		return h.handlePaymentCompleted(ctx, event)
	default:
		return nil
	}
}

func (h *NotificationEventHandlers) handlePaymentCompleted(ctx context.Context, event *events.Event) error {
	var data events.PaymentCompletedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse payment completed data")
	}
	if err := data.Validate(); err != nil {
		return errors.Wrap(err, "invalid payment completed data")
	}

	return h.notifyPaymentCompleted.Execute(ctx, &application.NotifyPaymentCompletedCommand{
		OrderID:   data.OrderID.String(),
		PaymentID: data.PaymentID.String(),
		Amount:    data.Amount,
		Currency:  data.Currency,
	})
}
