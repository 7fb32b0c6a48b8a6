package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// CloseOrderCommand closes an order once its shipment has been arranged
type CloseOrderCommand struct {
	OrderID        models.ID `json:"order_id"`
	ShipmentID     models.ID `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number"`
}

// CloseOrder is the last step of the choreography: the shipment-arranged
// event comes back around to the order service and the order is marked
// shipped. A redelivered event finds the order already shipped and is
// acknowledged without reprocessing.
type CloseOrder struct {
	orderRepository domain.OrderRepository
}

// NewCloseOrder creates a new CloseOrder use case
func NewCloseOrder(orderRepository domain.OrderRepository) *CloseOrder {
	return &CloseOrder{orderRepository: orderRepository}
}

// Execute executes the close order use case
func (uc *CloseOrder) Execute(ctx context.Context, cmd *CloseOrderCommand) error {
	if cmd.OrderID.IsZero() {
		return errors.New("order ID is required")
	}

	order, err := uc.orderRepository.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return errors.Wrapf(ErrOrderNotFound, "order %s", cmd.OrderID)
	}

	// Idempotency at the consumption boundary: a replay of the same
	// shipment event must not attempt an illegal re-transition.
	if order.Status == domain.OrderStatusShipped {
		return nil
	}

	if err := order.MarkShipped(); err != nil {
		return errors.Wrapf(err, "cannot close order %s", cmd.OrderID)
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return errors.Wrap(err, "failed to save order")
	}

	return nil
}
