package saga

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/shared/events"
	"github.com/swiftcart/order-system/shared/models"
)

type memoryProcessedStore struct {
	processed map[string]bool
	failCheck error
}

func newMemoryProcessedStore() *memoryProcessedStore {
	return &memoryProcessedStore{processed: make(map[string]bool)}
}

func (s *memoryProcessedStore) IsProcessed(_ context.Context, consumerID, key string) (bool, error) {
	if s.failCheck != nil {
		return false, s.failCheck
	}
	return s.processed[consumerID+":"+key], nil
}

func (s *memoryProcessedStore) MarkProcessed(_ context.Context, consumerID, key string) error {
	s.processed[consumerID+":"+key] = true
	return nil
}

func TestIdempotencyGuardSuppressesDuplicateDeliveries(t *testing.T) {
	inner := &recordingHandler{id: "consumer"}
	guard := NewIdempotencyGuard(inner, newMemoryProcessedStore())

	event := events.NewEvent(models.GenerateUUID(), events.PaymentCompletedTopic, nil)

	require.NoError(t, guard.Handle(context.Background(), event))
	require.NoError(t, guard.Handle(context.Background(), event))
	require.NoError(t, guard.Handle(context.Background(), event))

	assert.Len(t, inner.handled, 1)
}

func TestIdempotencyGuardDistinguishesEvents(t *testing.T) {
	inner := &recordingHandler{id: "consumer"}
	guard := NewIdempotencyGuard(inner, newMemoryProcessedStore())

	first := events.NewEvent(models.GenerateUUID(), events.PaymentCompletedTopic, nil)
	second := events.NewEvent(models.GenerateUUID(), events.PaymentCompletedTopic, nil)

	require.NoError(t, guard.Handle(context.Background(), first))
	require.NoError(t, guard.Handle(context.Background(), second))

	assert.Len(t, inner.handled, 2)
}

func TestIdempotencyGuardRetriesFailedDeliveries(t *testing.T) {
	// A delivery is only marked processed after the handler succeeds;
	// a failure leaves the message eligible for redelivery.
	attempts := 0
	inner := events.NewEventHandlerFunc("flaky", func(context.Context, *events.Event) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient handler failure")
		}
		return nil
	})
	guard := NewIdempotencyGuard(inner, newMemoryProcessedStore())

	event := events.NewEvent(models.GenerateUUID(), events.PaymentCompletedTopic, nil)

	assert.Error(t, guard.Handle(context.Background(), event))
	assert.NoError(t, guard.Handle(context.Background(), event))
	assert.NoError(t, guard.Handle(context.Background(), event))
	assert.Equal(t, 2, attempts)
}

func TestIdempotencyGuardSurfacesStoreErrors(t *testing.T) {
	inner := &recordingHandler{id: "consumer"}
	store := newMemoryProcessedStore()
	store.failCheck = errors.New("store unavailable")
	guard := NewIdempotencyGuard(inner, store)

	event := events.NewEvent(models.GenerateUUID(), events.PaymentCompletedTopic, nil)

	assert.Error(t, guard.Handle(context.Background(), event))
	assert.Empty(t, inner.handled)
}
