package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/notification-service/domain"
	"github.com/swiftcart/order-system/notification-service/infrastructure"
	"github.com/swiftcart/order-system/shared/events"
)

type capturePublisher struct {
	mu        sync.Mutex
	published []*events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, evts...)
	return nil
}

// flakySender fails a fixed number of sends before recovering
type flakySender struct {
	failures int
	calls    int
}

func (s *flakySender) Send(_ context.Context, _ *domain.Notification) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp unreachable")
	}
	return nil
}

func paymentCompleted() *NotifyPaymentCompletedCommand {
	return &NotifyPaymentCompletedCommand{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Amount:    3998,
		Currency:  "USD",
	}
}

func TestNotifyPaymentCompleted_SendsAndRequestsShipping(t *testing.T) {
	repo := infrastructure.NewMemoryNotificationRepository()
	publisher := &capturePublisher{}
	useCase := NewNotifyPaymentCompleted(repo, infrastructure.NewLogNotificationSender(), publisher)
	ctx := context.Background()

	require.NoError(t, useCase.Execute(ctx, paymentCompleted()))

	notification, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, domain.NotificationStatusSent, notification.Status)
	assert.Contains(t, notification.Message, "pay-1")
	assert.Contains(t, notification.Message, "order-1")

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.ShippingRequestedTopic, publisher.published[0].Topic)
	assert.Equal(t, notification.OrderID, publisher.published[0].AggregateID)
}

func TestNotifyPaymentCompleted_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := infrastructure.NewMemoryNotificationRepository()
	publisher := &capturePublisher{}
	useCase := NewNotifyPaymentCompleted(repo, infrastructure.NewLogNotificationSender(), publisher)
	ctx := context.Background()

	require.NoError(t, useCase.Execute(ctx, paymentCompleted()))
	require.NoError(t, useCase.Execute(ctx, paymentCompleted()))

	// One notification per order, one shipping request with it.
	assert.Len(t, publisher.published, 1)
}

func TestNotifyPaymentCompleted_SendFailureIsRetriable(t *testing.T) {
	repo := infrastructure.NewMemoryNotificationRepository()
	publisher := &capturePublisher{}
	sender := &flakySender{failures: 1}
	useCase := NewNotifyPaymentCompleted(repo, sender, publisher)
	ctx := context.Background()

	// First attempt fails: the failure is persisted and the error surfaces
	// so the delivery gets retried.
	err := useCase.Execute(ctx, paymentCompleted())
	require.Error(t, err)

	failed, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, domain.NotificationStatusFailed, failed.Status)
	assert.Empty(t, publisher.published)

	// The redelivery replaces the failed row and completes the step.
	require.NoError(t, useCase.Execute(ctx, paymentCompleted()))

	sent, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, domain.NotificationStatusSent, sent.Status)
	assert.NotEqual(t, failed.ID, sent.ID)
	assert.Len(t, publisher.published, 1)
}

func TestNotifyPaymentCompleted_RequiresOrderID(t *testing.T) {
	useCase := NewNotifyPaymentCompleted(
		infrastructure.NewMemoryNotificationRepository(),
		infrastructure.NewLogNotificationSender(),
		&capturePublisher{},
	)

	err := useCase.Execute(context.Background(), &NotifyPaymentCompletedCommand{PaymentID: "pay-1"})

	assert.Error(t, err)
}
