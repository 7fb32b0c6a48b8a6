package events

import (
	"time"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/models"
)

// This file is the event-contract catalog for the order choreography. There
// is no central coordinator: each service reacts to exactly one of these
// topics and produces the next one, so producers and consumers must agree on
// payload shape here or nowhere. Routing key for every topic is the order id.
const (
	// Order -> Payment (async path)
	OrderCreatedTopic Topic = "order.created"

	// Payment -> Notification
	PaymentCompletedTopic Topic = "payment.completed"

	// Notification -> Shipping
	ShippingRequestedTopic Topic = "shipping.requested"

	// Shipping -> Order
	ShipmentArrangedTopic Topic = "shipment.arranged"
)

// ShippingActionArrange is the only action the shipping request carries
const ShippingActionArrange = "ARRANGE_SHIPMENT"

// OrderCreatedData is the payload of order.created
type OrderCreatedData struct {
	OrderID     models.ID `json:"order_id"`
	CustomerID  models.ID `json:"customer_id"`
	ProductID   models.ID `json:"product_id"`
	Quantity    int       `json:"quantity"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

func (d OrderCreatedData) Validate() error {
	switch {
	case d.OrderID.IsZero():
		return errors.New("order id is required")
	case d.CustomerID.IsZero():
		return errors.New("customer id is required")
	case d.ProductID.IsZero():
		return errors.New("product id is required")
	case d.Quantity < 1:
		return errors.New("quantity must be at least 1")
	case d.Currency == "":
		return errors.New("currency is required")
	case d.Timestamp.IsZero():
		return errors.New("timestamp is required")
	}
	return nil
}

// PaymentCompletedData is the payload of payment.completed
type PaymentCompletedData struct {
	PaymentID models.ID `json:"payment_id"`
	OrderID   models.ID `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

func (d PaymentCompletedData) Validate() error {
	switch {
	case d.PaymentID.IsZero():
		return errors.New("payment id is required")
	case d.OrderID.IsZero():
		return errors.New("order id is required")
	case d.Currency == "":
		return errors.New("currency is required")
	case d.Timestamp.IsZero():
		return errors.New("timestamp is required")
	}
	return nil
}

// ShippingRequestedData is the payload of shipping.requested
type ShippingRequestedData struct {
	OrderID models.ID `json:"order_id"`
	Action  string    `json:"action"`
}

func (d ShippingRequestedData) Validate() error {
	switch {
	case d.OrderID.IsZero():
		return errors.New("order id is required")
	case d.Action != ShippingActionArrange:
		return errors.Errorf("unknown shipping action %q", d.Action)
	}
	return nil
}

// ShipmentArrangedData is the payload of shipment.arranged
type ShipmentArrangedData struct {
	ShipmentID     models.ID `json:"shipment_id"`
	OrderID        models.ID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Timestamp      time.Time `json:"timestamp"`
}

func (d ShipmentArrangedData) Validate() error {
	switch {
	case d.ShipmentID.IsZero():
		return errors.New("shipment id is required")
	case d.OrderID.IsZero():
		return errors.New("order id is required")
	case d.TrackingNumber == "":
		return errors.New("tracking number is required")
	case d.Timestamp.IsZero():
		return errors.New("timestamp is required")
	}
	return nil
}

// SagaTopics lists every choreography channel, in flow order.
// Subscribers and the dead-letter router derive everything else from these.
func SagaTopics() []Topic {
	return []Topic{
		OrderCreatedTopic,
		PaymentCompletedTopic,
		ShippingRequestedTopic,
		ShipmentArrangedTopic,
	}
}
