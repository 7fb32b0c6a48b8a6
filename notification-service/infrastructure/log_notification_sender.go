package infrastructure

import (
	"context"
	"log"

	"github.com/swiftcart/order-system/notification-service/domain"
)

// LogNotificationSender writes notifications to the process log. It stands in
// for an email or push provider.
type LogNotificationSender struct{}

var _ domain.NotificationSender = (*LogNotificationSender)(nil)

// NewLogNotificationSender creates a sender that logs messages
func NewLogNotificationSender() *LogNotificationSender {
	return &LogNotificationSender{}
}

// Send implements domain.NotificationSender
func (s *LogNotificationSender) Send(_ context.Context, notification *domain.Notification) error {
	log.Printf("notification for order %s: %s", notification.OrderID, notification.Message)
	return nil
}
