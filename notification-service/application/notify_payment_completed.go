package application

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// NotifyPaymentCompletedCommand represents a completed payment to announce
type NotifyPaymentCompletedCommand struct {
	OrderID   string
	PaymentID string
	Amount    int64
	Currency  string
}

// NotifyPaymentCompleted sends the payment confirmation for an order and,
// once sent, requests shipping. Redeliveries of the same payment event find
// the sent notification and stop: one notification per order, and
// shipping.requested goes out exactly once per order with it.
type NotifyPaymentCompleted struct {
	notificationRepository domain.NotificationRepository
	sender                 domain.NotificationSender
	eventPublisher         events.Publisher
}

// NewNotifyPaymentCompleted creates a new NotifyPaymentCompleted use case
func NewNotifyPaymentCompleted(
	notificationRepository domain.NotificationRepository,
	sender domain.NotificationSender,
	eventPublisher events.Publisher,
) *NotifyPaymentCompleted {
	return &NotifyPaymentCompleted{
		notificationRepository: notificationRepository,
		sender:                 sender,
		eventPublisher:         eventPublisher,
	}
}

// Execute executes the notify payment completed use case
func (uc *NotifyPaymentCompleted) Execute(ctx context.Context, cmd *NotifyPaymentCompletedCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "invalid order ID")
	}

	existing, err := uc.notificationRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up notification")
	}
	if existing != nil && existing.Status == domain.NotificationStatusSent {
		// Duplicate delivery: already announced, already requested shipping.
		return nil
	}

	message := fmt.Sprintf("Payment %s of %d %s received for order %s",
		cmd.PaymentID, cmd.Amount, cmd.Currency, cmd.OrderID)

	notification, err := domain.CreateNotification(orderID, message)
	if err != nil {
		return errors.Wrap(err, "failed to create notification")
	}

	if sendErr := uc.sender.Send(ctx, notification); sendErr != nil {
		// Persist the failure for inspection and surface the error so the
		// delivery is retried; a later attempt replaces this row.
		if err := notification.MarkFailed(sendErr.Error()); err != nil {
			return errors.Wrap(err, "failed to mark notification failed")
		}
		if err := uc.notificationRepository.Save(ctx, notification); err != nil {
			return errors.Wrap(err, "failed to save notification")
		}
		return errors.Wrap(sendErr, "failed to send notification")
	}

	if err := notification.MarkSent(); err != nil {
		return errors.Wrap(err, "failed to mark notification sent")
	}
	if err := uc.notificationRepository.Save(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to save notification")
	}

	for _, event := range notification.Events() {
		correlation.Stamp(ctx, event)
	}
	if err := uc.eventPublisher.Publish(ctx, notification.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish notification events")
	}
	notification.ClearEvents()

	return nil
}
