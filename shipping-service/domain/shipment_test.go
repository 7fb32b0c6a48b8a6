package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

func newShipment(t *testing.T) *Shipment {
	t.Helper()
	shipment, err := CreateShipment("order-1")
	require.NoError(t, err)
	return shipment
}

func TestCreateShipment(t *testing.T) {
	shipment := newShipment(t)

	assert.False(t, shipment.ID.IsZero())
	assert.Equal(t, models.ID("order-1"), shipment.OrderID)
	assert.Equal(t, ShipmentStatusPending, shipment.Status)
	assert.Empty(t, shipment.TrackingNumber)
	assert.Empty(t, shipment.Events())
}

func TestCreateShipmentRequiresOrderID(t *testing.T) {
	_, err := CreateShipment("")
	assert.Error(t, err)
}

func TestShipmentDispatch(t *testing.T) {
	shipment := newShipment(t)

	require.NoError(t, shipment.Dispatch("TRK-ABCD1234"))

	assert.Equal(t, ShipmentStatusInTransit, shipment.Status)
	assert.Equal(t, "TRK-ABCD1234", shipment.TrackingNumber)

	recorded := shipment.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.ShipmentArrangedTopic, recorded[0].Topic)
	assert.Equal(t, shipment.OrderID, recorded[0].AggregateID)

	var data events.ShipmentArrangedData
	require.NoError(t, recorded[0].UnmarshalPayload(&data))
	assert.Equal(t, shipment.ID, data.ShipmentID)
	assert.Equal(t, shipment.OrderID, data.OrderID)
	assert.Equal(t, "TRK-ABCD1234", data.TrackingNumber)
	assert.False(t, data.Timestamp.IsZero())
}

func TestShipmentDispatchRequiresTrackingNumber(t *testing.T) {
	shipment := newShipment(t)

	err := shipment.Dispatch("")

	assert.Error(t, err)
	assert.Equal(t, ShipmentStatusPending, shipment.Status)
	assert.Empty(t, shipment.Events())
}

func TestShipmentDispatchOnlyFromPending(t *testing.T) {
	shipment := newShipment(t)
	require.NoError(t, shipment.Dispatch("TRK-ABCD1234"))

	err := shipment.Dispatch("TRK-DEADBEEF")

	assert.Error(t, err)
	assert.Equal(t, "TRK-ABCD1234", shipment.TrackingNumber)
	assert.Len(t, shipment.Events(), 1)
}

func TestShipmentMarkDelivered(t *testing.T) {
	shipment := newShipment(t)
	require.NoError(t, shipment.Dispatch("TRK-ABCD1234"))

	require.NoError(t, shipment.MarkDelivered())

	assert.Equal(t, ShipmentStatusDelivered, shipment.Status)
}

func TestShipmentMarkDeliveredRequiresInTransit(t *testing.T) {
	shipment := newShipment(t)

	err := shipment.MarkDelivered()

	assert.Error(t, err)
	assert.Equal(t, ShipmentStatusPending, shipment.Status)
}
