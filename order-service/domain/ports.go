package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/models"
)

// ErrInsufficientStock rejects an order before anything is persisted
var ErrInsufficientStock = errors.New("insufficient stock")

// OrderRepository persists orders. FindByID returns (nil, nil) when the
// order does not exist.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
}

// ProductDetails is what the product service exposes about one product
type ProductDetails struct {
	ProductID models.ID
	Name      string
	Price     models.Money
	Stock     int
}

// ProductGateway is the synchronous product-service interface the
// orchestration depends on. Transport behind it is not this service's
// concern.
type ProductGateway interface {
	GetProduct(ctx context.Context, productID models.ID) (*ProductDetails, error)
	CheckInventory(ctx context.Context, productID models.ID, quantity int) (bool, error)
}

// PaymentResultStatus is the outcome of a payment attempt
type PaymentResultStatus string

const (
	PaymentResultCompleted PaymentResultStatus = "completed"
	PaymentResultFailed    PaymentResultStatus = "failed"
	// PaymentResultPending is the fallback outcome when the payment service
	// is unreachable: the order stays payment_pending for later recovery.
	PaymentResultPending PaymentResultStatus = "pending"
)

// PaymentResult is what a payment attempt returns
type PaymentResult struct {
	PaymentID models.ID
	Status    PaymentResultStatus
}

// Succeeded reports whether the payment completed
func (r *PaymentResult) Succeeded() bool {
	return r.Status == PaymentResultCompleted
}

// PaymentGateway is the synchronous payment-service interface. The guarded
// client wraps an implementation of this with timeout, retry and the circuit
// breaker; the orchestration only ever sees the guarded form.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, orderID models.ID, amount models.Money) (*PaymentResult, error)
}
