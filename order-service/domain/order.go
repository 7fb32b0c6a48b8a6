package domain

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/models"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusShipped        OrderStatus = "shipped"
)

// InvalidTransitionError reports an order transition attempted from the
// wrong state. The order is left unchanged.
type InvalidTransitionError struct {
	Attempted OrderStatus
	Current   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order to %s from %s", e.Attempted, e.Current)
}

// OrderItem is one line of an order, immutable once the order exists
type OrderItem struct {
	ProductID models.ID
	Quantity  int
	UnitPrice models.Money
}

// NewOrderItem creates a validated order item
func NewOrderItem(productID models.ID, quantity int, unitPrice models.Money) (OrderItem, error) {
	if productID.IsZero() {
		return OrderItem{}, errors.New("product ID is required")
	}
	if quantity < 1 {
		return OrderItem{}, errors.New("quantity must be at least 1")
	}
	if unitPrice.Currency == "" {
		return OrderItem{}, errors.New("unit price is required")
	}
	return OrderItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Subtotal returns quantity * unit price
func (i OrderItem) Subtotal() models.Money {
	return i.UnitPrice.Multiply(int64(i.Quantity))
}

// Order aggregate root. Status only moves forward:
// created -> payment_pending -> paid -> shipped. Each transition asserts its
// exact predecessor; anything else is an InvalidTransitionError. Replayed
// events never reach these methods twice for the same step, that is enforced
// at the event-consumption boundary.
type Order struct {
	ID         models.ID
	CustomerID models.ID
	Items      []OrderItem
	Status     OrderStatus
	Timestamps models.Timestamps
	Version    models.Version
}

// CreateOrder creates a new order in the created state
func CreateOrder(customerID models.ID, items []OrderItem) (*Order, error) {
	if customerID.IsZero() {
		return nil, errors.New("customer ID is required")
	}
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	return &Order{
		ID:         models.GenerateUUID(),
		CustomerID: customerID,
		Items:      items,
		Status:     OrderStatusCreated,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// TotalAmount sums the item subtotals
func (o *Order) TotalAmount() (models.Money, error) {
	total := o.Items[0].Subtotal()
	for _, item := range o.Items[1:] {
		var err error
		total, err = total.Add(item.Subtotal())
		if err != nil {
			return models.Money{}, err
		}
	}
	return total, nil
}

// MarkPaymentPending transitions created -> payment_pending
func (o *Order) MarkPaymentPending() error {
	return o.transition(OrderStatusCreated, OrderStatusPaymentPending)
}

// MarkPaid transitions payment_pending -> paid
func (o *Order) MarkPaid() error {
	return o.transition(OrderStatusPaymentPending, OrderStatusPaid)
}

// MarkShipped transitions paid -> shipped, closing the order
func (o *Order) MarkShipped() error {
	return o.transition(OrderStatusPaid, OrderStatusShipped)
}

func (o *Order) transition(from, to OrderStatus) error {
	if o.Status != from {
		return &InvalidTransitionError{Attempted: to, Current: o.Status}
	}
	o.Status = to
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
	return nil
}
