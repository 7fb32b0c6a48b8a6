// Package mocks provides testify mocks for the order service ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

// MockOrderRepository mocks domain.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if order := args.Get(0); order != nil {
		return order.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProductGateway mocks domain.ProductGateway
type MockProductGateway struct {
	mock.Mock
}

func (m *MockProductGateway) GetProduct(ctx context.Context, productID models.ID) (*domain.ProductDetails, error) {
	args := m.Called(ctx, productID)
	if details := args.Get(0); details != nil {
		return details.(*domain.ProductDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductGateway) CheckInventory(ctx context.Context, productID models.ID, quantity int) (bool, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Bool(0), args.Error(1)
}

// MockPaymentGateway mocks domain.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) ProcessPayment(ctx context.Context, orderID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	args := m.Called(ctx, orderID, amount)
	if result := args.Get(0); result != nil {
		return result.(*domain.PaymentResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher mocks events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	callArgs := make([]interface{}, 0, len(evts)+1)
	callArgs = append(callArgs, ctx)
	for _, event := range evts {
		callArgs = append(callArgs, event)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}
