package application

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// CreateOrder drives order creation: a synchronous stock check first, then
// the order is persisted and walked to payment_pending, then the payment
// call goes out through the guarded client. A failed or degraded payment
// leaves the order payment_pending instead of rolling anything back; the
// request still succeeds. The order-created event goes out regardless of the
// payment outcome, so the asynchronous payment path can run alongside the
// synchronous one.
type CreateOrder struct {
	orderRepository domain.OrderRepository
	productGateway  domain.ProductGateway
	paymentGateway  domain.PaymentGateway
	eventPublisher  events.Publisher
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	productGateway domain.ProductGateway,
	paymentGateway domain.PaymentGateway,
	eventPublisher events.Publisher,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		productGateway:  productGateway,
		paymentGateway:  paymentGateway,
		eventPublisher:  eventPublisher,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	// The request enters the system here; everything done for this order
	// from now on shares one correlation id.
	ctx, _ = correlation.Ensure(ctx)

	customerID := models.ID(cmd.CustomerID)
	productID := models.ID(cmd.ProductID)

	product, err := uc.productGateway.GetProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch product")
	}

	available, err := uc.productGateway.CheckInventory(ctx, productID, cmd.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check inventory")
	}
	if !available {
		// Fail fast: no order, no events, nothing persisted.
		return nil, errors.Wrapf(domain.ErrInsufficientStock,
			"product %s has %d in stock, %d requested", productID, product.Stock, cmd.Quantity)
	}

	item, err := domain.NewOrderItem(productID, cmd.Quantity, product.Price)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order item")
	}

	order, err := domain.CreateOrder(customerID, []domain.OrderItem{item})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := order.MarkPaymentPending(); err != nil {
		return nil, errors.Wrap(err, "failed to mark order payment pending")
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	total, err := order.TotalAmount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute order total")
	}

	paymentStatus := uc.attemptPayment(ctx, order, total)

	event := events.NewEvent(order.ID, events.OrderCreatedTopic, events.OrderCreatedData{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		ProductID:   productID,
		Quantity:    cmd.Quantity,
		TotalAmount: total.Amount,
		Currency:    total.Currency,
		Timestamp:   order.Timestamps.CreatedAt,
	})
	correlation.Stamp(ctx, event)

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to publish order created event")
	}

	return &CreateOrderResponse{
		OrderID:       order.ID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(paymentStatus),
	}, nil
}

// attemptPayment runs the guarded payment call and advances the order on
// success. Failure and fallback both leave the order payment_pending; the
// guarded client has already absorbed downstream unavailability.
func (uc *CreateOrder) attemptPayment(ctx context.Context, order *domain.Order, total models.Money) domain.PaymentResultStatus {
	result, err := uc.paymentGateway.ProcessPayment(ctx, order.ID, total)
	if err != nil {
		log.Printf("payment attempt errored for order %s, leaving payment_pending: %v", order.ID, err)
		return domain.PaymentResultPending
	}

	if !result.Succeeded() {
		return result.Status
	}

	if err := order.MarkPaid(); err != nil {
		log.Printf("could not mark order %s paid: %v", order.ID, err)
		return domain.PaymentResultPending
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		log.Printf("could not persist paid order %s: %v", order.ID, err)
	}
	return result.Status
}

func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	if cmd.ProductID == "" {
		return errors.New("product ID is required")
	}
	if cmd.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	return nil
}
