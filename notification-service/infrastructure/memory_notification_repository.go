package infrastructure

import (
	"context"
	"sync"

	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// MemoryNotificationRepository keeps notifications in memory with an order
// index; saving a second notification for the same order replaces the first.
type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[models.ID]domain.Notification
	byOrder       map[models.ID]models.ID
}

var _ domain.NotificationRepository = (*MemoryNotificationRepository)(nil)

// NewMemoryNotificationRepository creates an empty in-memory repository
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		notifications: make(map[models.ID]domain.Notification),
		byOrder:       make(map[models.ID]models.ID),
	}
}

// Save implements domain.NotificationRepository
func (r *MemoryNotificationRepository) Save(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previousID, ok := r.byOrder[notification.OrderID]; ok && previousID != notification.ID {
		delete(r.notifications, previousID)
	}
	stored := *notification
	stored.ClearEvents()
	r.notifications[notification.ID] = stored
	r.byOrder[notification.OrderID] = notification.ID
	return nil
}

// FindByID implements domain.NotificationRepository
func (r *MemoryNotificationRepository) FindByID(_ context.Context, id models.ID) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.notifications[id]
	if !ok {
		return nil, nil
	}
	notification := stored
	return &notification, nil
}

// FindByOrderID implements domain.NotificationRepository
func (r *MemoryNotificationRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notificationID, ok := r.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	stored := r.notifications[notificationID]
	notification := stored
	return &notification, nil
}
