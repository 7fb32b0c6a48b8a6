package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/mocks"
	"github.com/swiftcart/order-system/shared/models"
)

func storedOrder(t *testing.T) *domain.Order {
	t.Helper()
	item, err := domain.NewOrderItem("prod-1", 2, models.Money{Amount: 1999, Currency: "USD"})
	require.NoError(t, err)
	order, err := domain.CreateOrder("customer-1", []domain.OrderItem{item})
	require.NoError(t, err)
	return order
}

func TestGetOrder_ReturnsOrder(t *testing.T) {
	repo := &mocks.MockOrderRepository{}
	order := storedOrder(t)
	repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	useCase := NewGetOrder(repo)
	response, err := useCase.Execute(context.Background(), &GetOrderQuery{OrderID: order.ID.String()})

	require.NoError(t, err)
	assert.Equal(t, order.ID.String(), response.OrderID)
	assert.Equal(t, "customer-1", response.CustomerID)
	assert.Equal(t, string(domain.OrderStatusCreated), response.Status)
	require.Len(t, response.Items, 1)
	assert.Equal(t, "prod-1", response.Items[0].ProductID)
	assert.Equal(t, int64(1999), response.Items[0].UnitPrice)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := &mocks.MockOrderRepository{}
	repo.On("FindByID", mock.Anything, models.ID("missing")).Return(nil, nil)

	useCase := NewGetOrder(repo)
	response, err := useCase.Execute(context.Background(), &GetOrderQuery{OrderID: "missing"})

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, response)
}

func TestGetOrder_InvalidID(t *testing.T) {
	useCase := NewGetOrder(&mocks.MockOrderRepository{})
	response, err := useCase.Execute(context.Background(), &GetOrderQuery{OrderID: ""})

	assert.Error(t, err)
	assert.Nil(t, response)
}

func TestGetOrder_RepositoryError(t *testing.T) {
	repo := &mocks.MockOrderRepository{}
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, errors.New("database down"))

	useCase := NewGetOrder(repo)
	_, err := useCase.Execute(context.Background(), &GetOrderQuery{OrderID: "order-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find order")
}
