package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/shipping-service/domain"
)

// ArrangeShipmentCommand represents the command to arrange a shipment
type ArrangeShipmentCommand struct {
	OrderID string
}

// ArrangeShipment creates and dispatches the shipment for an order. One
// shipment per order: a redelivered request finds the existing shipment and
// does nothing.
type ArrangeShipment struct {
	shipmentRepository domain.ShipmentRepository
	eventPublisher     events.Publisher
}

// NewArrangeShipment creates a new ArrangeShipment use case
func NewArrangeShipment(
	shipmentRepository domain.ShipmentRepository,
	eventPublisher events.Publisher,
) *ArrangeShipment {
	return &ArrangeShipment{
		shipmentRepository: shipmentRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute executes the arrange shipment use case
func (uc *ArrangeShipment) Execute(ctx context.Context, cmd *ArrangeShipmentCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "invalid order ID")
	}

	existing, err := uc.shipmentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up shipment")
	}
	if existing != nil {
		return nil
	}

	shipment, err := domain.CreateShipment(orderID)
	if err != nil {
		return errors.Wrap(err, "failed to create shipment")
	}

	if err := shipment.Dispatch(newTrackingNumber()); err != nil {
		return errors.Wrap(err, "failed to dispatch shipment")
	}
	if err := uc.shipmentRepository.Save(ctx, shipment); err != nil {
		return errors.Wrap(err, "failed to save shipment")
	}

	for _, event := range shipment.Events() {
		correlation.Stamp(ctx, event)
	}
	if err := uc.eventPublisher.Publish(ctx, shipment.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish shipment events")
	}
	shipment.ClearEvents()

	return nil
}

func newTrackingNumber() string {
	return fmt.Sprintf("TRK-%s", strings.ToUpper(uuid.New().String()[:8]))
}
