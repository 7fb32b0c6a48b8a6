package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

type orderedHandler struct {
	mu      sync.Mutex
	byKey   map[models.ID][]int
	handled int
}

func newOrderedHandler() *orderedHandler {
	return &orderedHandler{byKey: make(map[models.ID][]int)}
}

func (h *orderedHandler) HandlerID() string {
	return "ordered-handler"
}

func (h *orderedHandler) Handle(_ context.Context, event *events.Event) error {
	var seq int
	_ = event.UnmarshalPayload(&seq)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.byKey[event.AggregateID] = append(h.byKey[event.AggregateID], seq)
	h.handled++
	return nil
}

func TestMemoryBrokerPreservesPerKeyOrder(t *testing.T) {
	broker := NewMemoryBroker(WithPartitions(2))
	defer broker.Close()

	handler := newOrderedHandler()
	require.NoError(t, broker.Subscribe(context.Background(), events.OrderCreatedTopic, handler))

	// Interleave publishes for several orders; within one order the
	// sequence must survive, across orders anything goes.
	keys := []models.ID{"order-a", "order-b", "order-c", "order-d"}
	perKey := 50
	for seq := 0; seq < perKey; seq++ {
		for _, key := range keys {
			event := events.NewEvent(key, events.OrderCreatedTopic, seq)
			require.NoError(t, broker.Publish(context.Background(), event))
		}
	}

	broker.Drain()

	for _, key := range keys {
		sequence := handler.byKey[key]
		require.Len(t, sequence, perKey, "key %s", key)
		for i, seq := range sequence {
			assert.Equal(t, i, seq, "key %s out of order", key)
		}
	}
}

func TestMemoryBrokerFansOutToAllSubscriptions(t *testing.T) {
	broker := NewMemoryBroker()
	defer broker.Close()

	first := newOrderedHandler()
	second := newOrderedHandler()
	require.NoError(t, broker.Subscribe(context.Background(), events.OrderCreatedTopic, first))
	require.NoError(t, broker.Subscribe(context.Background(), events.OrderCreatedTopic, second))

	event := events.NewEvent(models.GenerateUUID(), events.OrderCreatedTopic, 1)
	require.NoError(t, broker.Publish(context.Background(), event))
	broker.Drain()

	assert.Equal(t, 1, first.handled)
	assert.Equal(t, 1, second.handled)
}

func TestMemoryBrokerDropsUnsubscribedTopics(t *testing.T) {
	broker := NewMemoryBroker()
	defer broker.Close()

	event := events.NewEvent(models.GenerateUUID(), events.ShippingRequestedTopic, nil)
	assert.NoError(t, broker.Publish(context.Background(), event))
	broker.Drain()
}

func TestMemoryBrokerDrainWaitsForCascade(t *testing.T) {
	broker := NewMemoryBroker()
	defer broker.Close()

	// payment.completed handled by republishing shipping.requested, which a
	// second handler consumes: one Drain must observe the whole chain.
	var arrived []models.ID
	var mu sync.Mutex

	chained := events.NewEventHandlerFunc("chain-head", func(ctx context.Context, event *events.Event) error {
		follow := events.NewEvent(event.AggregateID, events.ShippingRequestedTopic, nil)
		return broker.Publish(ctx, follow)
	})
	tail := events.NewEventHandlerFunc("chain-tail", func(_ context.Context, event *events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		arrived = append(arrived, event.AggregateID)
		return nil
	})

	require.NoError(t, broker.Subscribe(context.Background(), events.PaymentCompletedTopic, chained))
	require.NoError(t, broker.Subscribe(context.Background(), events.ShippingRequestedTopic, tail))

	for i := 0; i < 10; i++ {
		orderID := models.ID(fmt.Sprintf("order-%d", i))
		event := events.NewEvent(orderID, events.PaymentCompletedTopic, nil)
		require.NoError(t, broker.Publish(context.Background(), event))
	}

	broker.Drain()
	assert.Len(t, arrived, 10)
}

func TestMemoryBrokerExtractsCorrelation(t *testing.T) {
	broker := NewMemoryBroker()
	defer broker.Close()

	var got models.ID
	handler := events.NewEventHandlerFunc("correlated", func(ctx context.Context, _ *events.Event) error {
		got, _ = correlation.FromContext(ctx)
		return nil
	})
	require.NoError(t, broker.Subscribe(context.Background(), events.OrderCreatedTopic, handler))

	ctx := correlation.WithID(context.Background(), "corr-123")
	event := correlation.Stamp(ctx, events.NewEvent(models.GenerateUUID(), events.OrderCreatedTopic, nil))
	require.NoError(t, broker.Publish(ctx, event))
	broker.Drain()

	assert.Equal(t, models.ID("corr-123"), got)
}

func TestMemoryBrokerRejectsPublishAfterClose(t *testing.T) {
	broker := NewMemoryBroker()
	require.NoError(t, broker.Close())

	event := events.NewEvent(models.GenerateUUID(), events.OrderCreatedTopic, nil)
	assert.Error(t, broker.Publish(context.Background(), event))
}
