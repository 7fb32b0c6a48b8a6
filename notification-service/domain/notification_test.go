package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

func newNotification(t *testing.T) *Notification {
	t.Helper()
	notification, err := CreateNotification("order-1", "Payment received")
	require.NoError(t, err)
	return notification
}

func TestCreateNotification(t *testing.T) {
	notification := newNotification(t)

	assert.False(t, notification.ID.IsZero())
	assert.Equal(t, models.ID("order-1"), notification.OrderID)
	assert.Equal(t, NotificationStatusPending, notification.Status)
	assert.Empty(t, notification.Events())
}

func TestCreateNotificationValidation(t *testing.T) {
	_, err := CreateNotification("", "Payment received")
	assert.Error(t, err)

	_, err = CreateNotification("order-1", "   ")
	assert.Error(t, err)
}

func TestNotificationMarkSent(t *testing.T) {
	notification := newNotification(t)

	require.NoError(t, notification.MarkSent())

	assert.Equal(t, NotificationStatusSent, notification.Status)

	// Sending is the saga step: it records the shipping request for the
	// order, keyed by the order id.
	recorded := notification.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.ShippingRequestedTopic, recorded[0].Topic)
	assert.Equal(t, notification.OrderID, recorded[0].AggregateID)

	var data events.ShippingRequestedData
	require.NoError(t, recorded[0].UnmarshalPayload(&data))
	assert.Equal(t, notification.OrderID, data.OrderID)
	assert.Equal(t, events.ShippingActionArrange, data.Action)
}

func TestNotificationMarkSentOnlyFromPending(t *testing.T) {
	notification := newNotification(t)
	require.NoError(t, notification.MarkSent())

	err := notification.MarkSent()

	assert.Error(t, err)
	assert.Len(t, notification.Events(), 1)
}

func TestNotificationMarkFailed(t *testing.T) {
	notification := newNotification(t)

	require.NoError(t, notification.MarkFailed("smtp unreachable"))

	assert.Equal(t, NotificationStatusFailed, notification.Status)
	assert.Equal(t, "smtp unreachable", notification.FailureReason)

	// A failed send requests no shipping.
	assert.Empty(t, notification.Events())
}

func TestNotificationMarkFailedOnlyFromPending(t *testing.T) {
	notification := newNotification(t)
	require.NoError(t, notification.MarkSent())

	err := notification.MarkFailed("too late")

	assert.Error(t, err)
	assert.Equal(t, NotificationStatusSent, notification.Status)
}
