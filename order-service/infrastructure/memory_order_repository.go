package infrastructure

import (
	"context"
	"sync"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// MemoryOrderRepository is the default, ephemeral order store. Orders are
// stored and returned by value copy, so callers always work on their own
// snapshot and write back explicitly.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[models.ID]domain.Order
}

var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// NewMemoryOrderRepository creates an empty in-memory repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[models.ID]domain.Order),
	}
}

// Save implements domain.OrderRepository
func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = stored
	return nil
}

// FindByID implements domain.OrderRepository
func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, nil
	}

	order := stored
	order.Items = append([]domain.OrderItem(nil), stored.Items...)
	return &order, nil
}
