package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/models"
)

func mustMoney(t *testing.T, amount int64) models.Money {
	t.Helper()
	money, err := models.NewMoney(amount, "USD")
	require.NoError(t, err)
	return money
}

func testItem(t *testing.T, quantity int, unitPrice int64) OrderItem {
	t.Helper()
	item, err := NewOrderItem(models.GenerateUUID(), quantity, mustMoney(t, unitPrice))
	require.NoError(t, err)
	return item
}

func TestNewOrderItem(t *testing.T) {
	tests := []struct {
		name          string
		productID     models.ID
		quantity      int
		unitPrice     models.Money
		expectedError string
	}{
		{name: "valid item", productID: "prod-1", quantity: 2, unitPrice: models.Money{Amount: 1000, Currency: "USD"}},
		{name: "missing product", productID: "", quantity: 2, unitPrice: models.Money{Amount: 1000, Currency: "USD"}, expectedError: "product ID is required"},
		{name: "zero quantity", productID: "prod-1", quantity: 0, unitPrice: models.Money{Amount: 1000, Currency: "USD"}, expectedError: "quantity must be at least 1"},
		{name: "negative quantity", productID: "prod-1", quantity: -1, unitPrice: models.Money{Amount: 1000, Currency: "USD"}, expectedError: "quantity must be at least 1"},
		{name: "missing unit price", productID: "prod-1", quantity: 2, unitPrice: models.Money{}, expectedError: "unit price is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewOrderItem(tt.productID, tt.quantity, tt.unitPrice)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.quantity, item.Quantity)
			}
		})
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := testItem(t, 3, 1999)
	assert.Equal(t, int64(5997), item.Subtotal().Amount)
}

func TestCreateOrder(t *testing.T) {
	t.Run("starts created", func(t *testing.T) {
		order, err := CreateOrder("customer-1", []OrderItem{testItem(t, 2, 1000)})
		require.NoError(t, err)

		assert.False(t, order.ID.IsZero())
		assert.Equal(t, OrderStatusCreated, order.Status)
		assert.Equal(t, 1, order.Version.Value)
	})

	t.Run("requires customer", func(t *testing.T) {
		_, err := CreateOrder("", []OrderItem{testItem(t, 1, 1000)})
		assert.Error(t, err)
	})

	t.Run("requires items", func(t *testing.T) {
		_, err := CreateOrder("customer-1", nil)
		assert.Error(t, err)
	})
}

func TestOrderTotalAmount(t *testing.T) {
	order, err := CreateOrder("customer-1", []OrderItem{
		testItem(t, 2, 1000),
		testItem(t, 1, 500),
	})
	require.NoError(t, err)

	total, err := order.TotalAmount()
	require.NoError(t, err)
	assert.Equal(t, int64(2500), total.Amount)
	assert.Equal(t, "USD", total.Currency)
}

func TestOrderLifecycle(t *testing.T) {
	order, err := CreateOrder("customer-1", []OrderItem{testItem(t, 1, 1000)})
	require.NoError(t, err)

	require.NoError(t, order.MarkPaymentPending())
	assert.Equal(t, OrderStatusPaymentPending, order.Status)
	assert.Equal(t, 2, order.Version.Value)

	require.NoError(t, order.MarkPaid())
	assert.Equal(t, OrderStatusPaid, order.Status)

	require.NoError(t, order.MarkShipped())
	assert.Equal(t, OrderStatusShipped, order.Status)
	assert.Equal(t, 4, order.Version.Value)
}

func TestOrderRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(*Order)
		attempt   func(*Order) error
		attempted OrderStatus
		current   OrderStatus
	}{
		{
			name:      "paid before payment pending",
			prepare:   func(*Order) {},
			attempt:   (*Order).MarkPaid,
			attempted: OrderStatusPaid,
			current:   OrderStatusCreated,
		},
		{
			name:      "shipped before paid",
			prepare:   func(o *Order) { _ = o.MarkPaymentPending() },
			attempt:   (*Order).MarkShipped,
			attempted: OrderStatusShipped,
			current:   OrderStatusPaymentPending,
		},
		{
			name: "payment pending twice",
			prepare: func(o *Order) {
				_ = o.MarkPaymentPending()
			},
			attempt:   (*Order).MarkPaymentPending,
			attempted: OrderStatusPaymentPending,
			current:   OrderStatusPaymentPending,
		},
		{
			name: "shipped twice",
			prepare: func(o *Order) {
				_ = o.MarkPaymentPending()
				_ = o.MarkPaid()
				_ = o.MarkShipped()
			},
			attempt:   (*Order).MarkShipped,
			attempted: OrderStatusShipped,
			current:   OrderStatusShipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := CreateOrder("customer-1", []OrderItem{testItem(t, 1, 1000)})
			require.NoError(t, err)
			tt.prepare(order)
			before := order.Status

			err = tt.attempt(order)

			var transitionErr *InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tt.attempted, transitionErr.Attempted)
			assert.Equal(t, tt.current, transitionErr.Current)
			// State unchanged on a rejected transition.
			assert.Equal(t, before, order.Status)
		})
	}
}
