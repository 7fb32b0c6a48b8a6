package infrastructure

import (
	"context"
	"sync"

	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/shipping-service/domain"
)

// MemoryShipmentRepository keeps shipments in memory with an order index
type MemoryShipmentRepository struct {
	mu        sync.RWMutex
	shipments map[models.ID]domain.Shipment
	byOrder   map[models.ID]models.ID
}

var _ domain.ShipmentRepository = (*MemoryShipmentRepository)(nil)

// NewMemoryShipmentRepository creates an empty in-memory repository
func NewMemoryShipmentRepository() *MemoryShipmentRepository {
	return &MemoryShipmentRepository{
		shipments: make(map[models.ID]domain.Shipment),
		byOrder:   make(map[models.ID]models.ID),
	}
}

// Save implements domain.ShipmentRepository
func (r *MemoryShipmentRepository) Save(_ context.Context, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *shipment
	stored.ClearEvents()
	r.shipments[shipment.ID] = stored
	r.byOrder[shipment.OrderID] = shipment.ID
	return nil
}

// FindByID implements domain.ShipmentRepository
func (r *MemoryShipmentRepository) FindByID(_ context.Context, id models.ID) (*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.shipments[id]
	if !ok {
		return nil, nil
	}
	shipment := stored
	return &shipment, nil
}

// FindByOrderID implements domain.ShipmentRepository
func (r *MemoryShipmentRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shipmentID, ok := r.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	stored := r.shipments[shipmentID]
	shipment := stored
	return &shipment, nil
}
