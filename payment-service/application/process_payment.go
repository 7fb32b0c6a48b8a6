package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/payment-service/domain"
	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// ProcessPaymentCommand represents the command to process a payment
type ProcessPaymentCommand struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ProcessPaymentResponse represents the outcome of a payment attempt
type ProcessPaymentResponse struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
}

// ProcessPayment charges an order. It is invoked twice per order in the
// normal flow: synchronously by the order service and asynchronously off
// order.created. Both calls converge on the same payment row per order, so
// whichever lands second sees the existing payment and returns it untouched.
type ProcessPayment struct {
	paymentRepository domain.PaymentRepository
	authorizer        domain.PaymentAuthorizer
	eventPublisher    events.Publisher
}

// NewProcessPayment creates a new ProcessPayment use case
func NewProcessPayment(
	paymentRepository domain.PaymentRepository,
	authorizer domain.PaymentAuthorizer,
	eventPublisher events.Publisher,
) *ProcessPayment {
	return &ProcessPayment{
		paymentRepository: paymentRepository,
		authorizer:        authorizer,
		eventPublisher:    eventPublisher,
	}
}

// Execute executes the process payment use case
func (uc *ProcessPayment) Execute(ctx context.Context, cmd *ProcessPaymentCommand) (*ProcessPaymentResponse, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	amount, err := models.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, errors.Wrap(err, "invalid amount")
	}

	existing, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up payment")
	}
	if existing != nil {
		// Already charged (or charging): the duplicate path is a read.
		return toResponse(existing), nil
	}

	payment, err := domain.CreatePayment(orderID, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create payment")
	}

	if authErr := uc.authorizer.Authorize(ctx, orderID, amount); authErr != nil {
		if err := payment.Fail(authErr.Error()); err != nil {
			return nil, errors.Wrap(err, "failed to mark payment failed")
		}
		if err := uc.paymentRepository.Save(ctx, payment); err != nil {
			return nil, errors.Wrap(err, "failed to save payment")
		}
		return toResponse(payment), nil
	}

	if err := payment.Complete(); err != nil {
		return nil, errors.Wrap(err, "failed to complete payment")
	}
	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to save payment")
	}

	for _, event := range payment.Events() {
		correlation.Stamp(ctx, event)
	}
	if err := uc.eventPublisher.Publish(ctx, payment.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish payment events")
	}
	payment.ClearEvents()

	return toResponse(payment), nil
}

func toResponse(payment *domain.Payment) *ProcessPaymentResponse {
	return &ProcessPaymentResponse{
		PaymentID: payment.ID.String(),
		OrderID:   payment.OrderID.String(),
		Status:    string(payment.Status),
	}
}
