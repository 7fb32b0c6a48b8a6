package infrastructure

import (
	"context"
	"sync"

	"github.com/swiftcart/order-system/payment-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// MemoryPaymentRepository keeps payments in memory, indexed both ways the
// service looks them up. The order index is what makes duplicate charges
// for one order converge on a single payment.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[models.ID]domain.Payment
	byOrder  map[models.ID]models.ID
}

var _ domain.PaymentRepository = (*MemoryPaymentRepository)(nil)

// NewMemoryPaymentRepository creates an empty in-memory repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[models.ID]domain.Payment),
		byOrder:  make(map[models.ID]models.ID),
	}
}

// Save implements domain.PaymentRepository
func (r *MemoryPaymentRepository) Save(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *payment
	stored.ClearEvents()
	r.payments[payment.ID] = stored
	r.byOrder[payment.OrderID] = payment.ID
	return nil
}

// FindByID implements domain.PaymentRepository
func (r *MemoryPaymentRepository) FindByID(_ context.Context, id models.ID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id), nil
}

// FindByOrderID implements domain.PaymentRepository
func (r *MemoryPaymentRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paymentID, ok := r.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	return r.lookup(paymentID), nil
}

func (r *MemoryPaymentRepository) lookup(id models.ID) *domain.Payment {
	stored, ok := r.payments[id]
	if !ok {
		return nil
	}
	payment := stored
	if stored.CompletedAt != nil {
		completedAt := *stored.CompletedAt
		payment.CompletedAt = &completedAt
	}
	return &payment
}
