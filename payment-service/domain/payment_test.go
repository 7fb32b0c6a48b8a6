package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

func newPayment(t *testing.T) *Payment {
	t.Helper()
	payment, err := CreatePayment("order-1", models.Money{Amount: 3998, Currency: "USD"})
	require.NoError(t, err)
	return payment
}

func TestCreatePayment(t *testing.T) {
	payment := newPayment(t)

	assert.False(t, payment.ID.IsZero())
	assert.Equal(t, models.ID("order-1"), payment.OrderID)
	assert.Equal(t, PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.CompletedAt)
	assert.Empty(t, payment.Events())
}

func TestCreatePaymentValidation(t *testing.T) {
	_, err := CreatePayment("", models.Money{Amount: 100, Currency: "USD"})
	assert.Error(t, err)

	_, err = CreatePayment("order-1", models.Money{Amount: 0, Currency: "USD"})
	assert.Error(t, err)
}

func TestPaymentComplete(t *testing.T) {
	payment := newPayment(t)

	require.NoError(t, payment.Complete())

	assert.Equal(t, PaymentStatusCompleted, payment.Status)
	assert.True(t, payment.Succeeded())
	require.NotNil(t, payment.CompletedAt)

	// The completion event is keyed by the order, not the payment, so it
	// shares the partition of every other event for that order.
	recorded := payment.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.PaymentCompletedTopic, recorded[0].Topic)
	assert.Equal(t, payment.OrderID, recorded[0].AggregateID)

	var data events.PaymentCompletedData
	require.NoError(t, recorded[0].UnmarshalPayload(&data))
	assert.Equal(t, payment.ID, data.PaymentID)
	assert.Equal(t, payment.OrderID, data.OrderID)
	assert.Equal(t, int64(3998), data.Amount)
	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, *payment.CompletedAt, data.Timestamp)
}

func TestPaymentCompleteOnlyFromPending(t *testing.T) {
	payment := newPayment(t)
	require.NoError(t, payment.Fail("card declined"))

	err := payment.Complete()

	assert.Error(t, err)
	assert.Nil(t, payment.CompletedAt)
	assert.Empty(t, payment.Events())
}

func TestPaymentFail(t *testing.T) {
	payment := newPayment(t)

	require.NoError(t, payment.Fail("card declined"))

	assert.Equal(t, PaymentStatusFailed, payment.Status)
	assert.Equal(t, "card declined", payment.FailureReason)
	assert.False(t, payment.Succeeded())
	assert.Nil(t, payment.CompletedAt)

	// Failure emits nothing downstream.
	assert.Empty(t, payment.Events())
}

func TestPaymentFailOnlyFromPending(t *testing.T) {
	payment := newPayment(t)
	require.NoError(t, payment.Complete())

	err := payment.Fail("too late")

	assert.Error(t, err)
	assert.Equal(t, PaymentStatusCompleted, payment.Status)
}

func TestPaymentClearEvents(t *testing.T) {
	payment := newPayment(t)
	require.NoError(t, payment.Complete())
	require.NotEmpty(t, payment.Events())

	payment.ClearEvents()

	assert.Empty(t, payment.Events())
}
