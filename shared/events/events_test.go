package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/models"
)

func TestTopicDLQ(t *testing.T) {
	assert.Equal(t, Topic("order.created.dlq"), OrderCreatedTopic.DLQ())
	assert.False(t, OrderCreatedTopic.IsDLQ())
	assert.True(t, OrderCreatedTopic.DLQ().IsDLQ())
	assert.False(t, Topic(".dlq").IsDLQ())
}

func TestNewEvent(t *testing.T) {
	orderID := models.GenerateUUID()
	event := NewEvent(orderID, OrderCreatedTopic, OrderCreatedData{OrderID: orderID})

	assert.False(t, event.ID.IsZero())
	assert.Equal(t, orderID, event.AggregateID)
	assert.Equal(t, OrderCreatedTopic, event.Topic)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotNil(t, event.Metadata)
}

func TestEventPayloadRoundTrip(t *testing.T) {
	orderID := models.GenerateUUID()
	paymentID := models.GenerateUUID()
	event := NewEvent(orderID, PaymentCompletedTopic, PaymentCompletedData{
		PaymentID: paymentID,
		OrderID:   orderID,
		Amount:    5000,
		Currency:  "USD",
	})

	t.Run("typed payload", func(t *testing.T) {
		var decoded PaymentCompletedData
		require.NoError(t, event.UnmarshalPayload(&decoded))
		assert.Equal(t, paymentID, decoded.PaymentID)
		assert.Equal(t, int64(5000), decoded.Amount)
	})

	t.Run("off the wire", func(t *testing.T) {
		raw, err := event.ToJSON()
		require.NoError(t, err)

		received, err := FromJSON(raw)
		require.NoError(t, err)
		assert.Equal(t, event.ID, received.ID)
		assert.Equal(t, event.AggregateID, received.AggregateID)

		var decoded PaymentCompletedData
		require.NoError(t, received.UnmarshalPayload(&decoded))
		assert.Equal(t, orderID, decoded.OrderID)
		assert.Equal(t, "USD", decoded.Currency)
	})

	t.Run("raw message payload", func(t *testing.T) {
		event := NewEvent(orderID, ShippingRequestedTopic, json.RawMessage(`{"order_id":"`+orderID.String()+`","action":"ARRANGE_SHIPMENT"}`))
		var decoded ShippingRequestedData
		require.NoError(t, event.UnmarshalPayload(&decoded))
		assert.NoError(t, decoded.Validate())
	})
}

func TestEventClone(t *testing.T) {
	orderID := models.GenerateUUID()
	event := NewEvent(orderID, OrderCreatedTopic, OrderCreatedData{OrderID: orderID})
	event.WithMetadata("key", "value")

	clone := event.Clone()
	clone.Topic = OrderCreatedTopic.DLQ()
	clone.WithMetadata("key", "changed")

	assert.Equal(t, OrderCreatedTopic, event.Topic)
	original, _ := event.Metadata.Get("key")
	assert.Equal(t, "value", original)
	assert.Equal(t, event.ID, clone.ID)
}

func TestPayloadValidation(t *testing.T) {
	orderID := models.GenerateUUID()

	t.Run("shipping action", func(t *testing.T) {
		valid := ShippingRequestedData{OrderID: orderID, Action: ShippingActionArrange}
		assert.NoError(t, valid.Validate())

		unknown := ShippingRequestedData{OrderID: orderID, Action: "CANCEL_SHIPMENT"}
		assert.Error(t, unknown.Validate())

		missingOrder := ShippingRequestedData{Action: ShippingActionArrange}
		assert.Error(t, missingOrder.Validate())
	})

	t.Run("shipment arranged requires tracking number", func(t *testing.T) {
		data := ShipmentArrangedData{
			ShipmentID: models.GenerateUUID(),
			OrderID:    orderID,
		}
		assert.Error(t, data.Validate())
	})

	t.Run("order created requires positive quantity", func(t *testing.T) {
		data := OrderCreatedData{
			OrderID:    orderID,
			CustomerID: models.GenerateUUID(),
			ProductID:  models.GenerateUUID(),
			Quantity:   0,
			Currency:   "USD",
		}
		assert.Error(t, data.Validate())
	})
}
