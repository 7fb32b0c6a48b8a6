package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// ShipmentStatus represents the status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// Shipment aggregate root. The status only moves forward: pending,
// in_transit, delivered. A tracking number exists from the moment the
// shipment is in transit.
type Shipment struct {
	ID             models.ID
	OrderID        models.ID
	TrackingNumber string
	Status         ShipmentStatus
	Timestamps     models.Timestamps
	Version        models.Version

	events []*events.Event
}

// CreateShipment factory method
func CreateShipment(orderID models.ID) (*Shipment, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}

	return &Shipment{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		Status:     ShipmentStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// Dispatch puts the shipment in transit under a tracking number and records
// shipment.arranged
func (s *Shipment) Dispatch(trackingNumber string) error {
	if s.Status != ShipmentStatusPending {
		return errors.Errorf("shipment can only be dispatched from pending status, was %s", s.Status)
	}
	if trackingNumber == "" {
		return errors.New("tracking number is required")
	}

	s.Status = ShipmentStatusInTransit
	s.TrackingNumber = trackingNumber
	s.Timestamps = s.Timestamps.Update()
	s.Version = s.Version.Update()

	event := events.NewEvent(s.OrderID, events.ShipmentArrangedTopic, events.ShipmentArrangedData{
		ShipmentID:     s.ID,
		OrderID:        s.OrderID,
		TrackingNumber: s.TrackingNumber,
		Timestamp:      time.Now(),
	})

	s.recordEvent(event)
	return nil
}

// MarkDelivered marks the shipment as delivered
func (s *Shipment) MarkDelivered() error {
	if s.Status != ShipmentStatusInTransit {
		return errors.Errorf("shipment can only be delivered from in_transit status, was %s", s.Status)
	}

	s.Status = ShipmentStatusDelivered
	s.Timestamps = s.Timestamps.Update()
	s.Version = s.Version.Update()
	return nil
}

// Events returns domain events
func (s *Shipment) Events() []*events.Event {
	return s.events
}

// ClearEvents clears domain events
func (s *Shipment) ClearEvents() {
	s.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (s *Shipment) recordEvent(event *events.Event) {
	s.events = append(s.events, event)
}

// ShipmentRepository persists shipments. Find methods return (nil, nil)
// when no shipment exists.
type ShipmentRepository interface {
	Save(ctx context.Context, shipment *Shipment) error
	FindByID(ctx context.Context, id models.ID) (*Shipment, error)
	FindByOrderID(ctx context.Context, orderID models.ID) (*Shipment, error)
}
