package infrastructure

import (
	"context"
	"sync"

	"github.com/swiftcart/order-system/product-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// MemoryProductRepository is the ephemeral catalog store
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[models.ID]domain.Product
}

var _ domain.ProductRepository = (*MemoryProductRepository)(nil)

// NewMemoryProductRepository creates an empty in-memory repository
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[models.ID]domain.Product),
	}
}

// Save implements domain.ProductRepository
func (r *MemoryProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

// FindByID implements domain.ProductRepository
func (r *MemoryProductRepository) FindByID(_ context.Context, id models.ID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	product := stored
	return &product, nil
}
