package domain

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// NotificationStatus represents the status of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification aggregate root. Sending the payment confirmation is also the
// point where the saga moves on: a sent notification records the shipping
// request for its order.
type Notification struct {
	ID            models.ID
	OrderID       models.ID
	Message       string
	Status        NotificationStatus
	FailureReason string
	Timestamps    models.Timestamps
	Version       models.Version

	events []*events.Event
}

// CreateNotification factory method
func CreateNotification(orderID models.ID, message string) (*Notification, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message must not be blank")
	}

	return &Notification{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		Message:    message,
		Status:     NotificationStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// MarkSent marks the notification as sent and records shipping.requested
func (n *Notification) MarkSent() error {
	if n.Status != NotificationStatusPending {
		return errors.Errorf("notification can only be sent from pending status, was %s", n.Status)
	}

	n.Status = NotificationStatusSent
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()

	event := events.NewEvent(n.OrderID, events.ShippingRequestedTopic, events.ShippingRequestedData{
		OrderID: n.OrderID,
		Action:  events.ShippingActionArrange,
	})

	n.recordEvent(event)
	return nil
}

// MarkFailed marks the notification as failed
func (n *Notification) MarkFailed(reason string) error {
	if n.Status != NotificationStatusPending {
		return errors.Errorf("notification can only be failed from pending status, was %s", n.Status)
	}

	n.Status = NotificationStatusFailed
	n.FailureReason = reason
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()
	return nil
}

// Events returns domain events
func (n *Notification) Events() []*events.Event {
	return n.events
}

// ClearEvents clears domain events
func (n *Notification) ClearEvents() {
	n.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (n *Notification) recordEvent(event *events.Event) {
	n.events = append(n.events, event)
}

// NotificationRepository persists notifications. Find methods return
// (nil, nil) when no notification exists.
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	FindByID(ctx context.Context, id models.ID) (*Notification, error)
	FindByOrderID(ctx context.Context, orderID models.ID) (*Notification, error)
}

// NotificationSender delivers the message to the customer channel
type NotificationSender interface {
	Send(ctx context.Context, notification *Notification) error
}
