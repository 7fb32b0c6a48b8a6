package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment aggregate root. A payment belongs to exactly one order; its events
// are routed by that order id so they stay in line behind the order's other
// events. CompletedAt is set exactly when the payment completes and is nil
// while pending or after failure.
type Payment struct {
	ID            models.ID
	OrderID       models.ID
	Amount        models.Money
	Status        PaymentStatus
	FailureReason string
	CompletedAt   *time.Time
	Timestamps    models.Timestamps
	Version       models.Version

	events []*events.Event
}

// CreatePayment factory method
func CreatePayment(orderID models.ID, amount models.Money) (*Payment, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	return &Payment{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		Amount:     amount,
		Status:     PaymentStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// Complete marks the payment as completed and records payment.completed
func (p *Payment) Complete() error {
	if p.Status != PaymentStatusPending {
		return errors.Errorf("payment can only be completed from pending status, was %s", p.Status)
	}

	now := time.Now()
	p.Status = PaymentStatusCompleted
	p.CompletedAt = &now
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()

	event := events.NewEvent(p.OrderID, events.PaymentCompletedTopic, events.PaymentCompletedData{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount.Amount,
		Currency:  p.Amount.Currency,
		Timestamp: now,
	})

	p.recordEvent(event)
	return nil
}

// Fail marks the payment as failed. Failed payments emit nothing: the order
// stays payment_pending and recovery moves forward, not back.
func (p *Payment) Fail(reason string) error {
	if p.Status != PaymentStatusPending {
		return errors.Errorf("payment can only be failed from pending status, was %s", p.Status)
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()
	return nil
}

// Succeeded reports whether the payment completed
func (p *Payment) Succeeded() bool {
	return p.Status == PaymentStatusCompleted
}

// Events returns domain events
func (p *Payment) Events() []*events.Event {
	return p.events
}

// ClearEvents clears domain events
func (p *Payment) ClearEvents() {
	p.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (p *Payment) recordEvent(event *events.Event) {
	p.events = append(p.events, event)
}

// PaymentRepository persists payments. Find methods return (nil, nil) when
// no payment exists.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id models.ID) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID models.ID) (*Payment, error)
}

// PaymentAuthorizer decides whether a charge goes through. The simulator
// implementation stands in for a real provider integration.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, orderID models.ID, amount models.Money) error
}
