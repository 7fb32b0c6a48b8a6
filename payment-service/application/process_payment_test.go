package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcart/order-system/payment-service/domain"
	"github.com/swiftcart/order-system/payment-service/infrastructure"
	"github.com/swiftcart/order-system/shared/correlation"
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

func chargeCommand() *ProcessPaymentCommand {
	return &ProcessPaymentCommand{OrderID: "order-1", Amount: 3998, Currency: "USD"}
}

func TestProcessPayment_ChargesAndPublishes(t *testing.T) {
	repo := infrastructure.NewMemoryPaymentRepository()
	publisher := &capturePublisher{}
	useCase := NewProcessPayment(repo, infrastructure.NewSimulatedAuthorizer(), publisher)
	ctx := correlation.WithID(context.Background(), "corr-1")

	response, err := useCase.Execute(ctx, chargeCommand())

	require.NoError(t, err)
	assert.Equal(t, "order-1", response.OrderID)
	assert.Equal(t, string(domain.PaymentStatusCompleted), response.Status)

	stored, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Succeeded())
	require.NotNil(t, stored.CompletedAt)

	require.Len(t, publisher.published, 1)
	event := publisher.published[0]
	assert.Equal(t, events.PaymentCompletedTopic, event.Topic)
	assert.Equal(t, stored.OrderID, event.AggregateID)
	header, _ := event.Metadata.Get(correlation.MetadataKey)
	assert.Equal(t, "corr-1", header)
}

func TestProcessPayment_DuplicateOrderReturnsExistingPayment(t *testing.T) {
	repo := infrastructure.NewMemoryPaymentRepository()
	publisher := &capturePublisher{}
	useCase := NewProcessPayment(repo, infrastructure.NewSimulatedAuthorizer(), publisher)
	ctx := context.Background()

	first, err := useCase.Execute(ctx, chargeCommand())
	require.NoError(t, err)

	// The same order arrives again, from the other path or a redelivery.
	second, err := useCase.Execute(ctx, chargeCommand())
	require.NoError(t, err)

	// One payment row, one published event; the second call is a read.
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, first.Status, second.Status)
	assert.Len(t, publisher.published, 1)
}

func TestProcessPayment_DeclinedChargeFailsWithoutPublishing(t *testing.T) {
	repo := infrastructure.NewMemoryPaymentRepository()
	publisher := &capturePublisher{}
	authorizer := infrastructure.NewSimulatedAuthorizer().WithDeclineOver(1000)
	useCase := NewProcessPayment(repo, authorizer, publisher)
	ctx := context.Background()

	response, err := useCase.Execute(ctx, chargeCommand())

	// A decline is a business outcome, not an error.
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusFailed), response.Status)

	stored, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.FailureReason)
	assert.Nil(t, stored.CompletedAt)

	assert.Empty(t, publisher.published)
}

func TestProcessPayment_ProviderOutageFailsPayment(t *testing.T) {
	repo := infrastructure.NewMemoryPaymentRepository()
	publisher := &capturePublisher{}
	authorizer := infrastructure.NewSimulatedAuthorizer()
	authorizer.SetUnavailable(true)
	useCase := NewProcessPayment(repo, authorizer, publisher)

	response, err := useCase.Execute(context.Background(), chargeCommand())

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusFailed), response.Status)
	assert.Empty(t, publisher.published)
}

func TestProcessPayment_ValidatesCommand(t *testing.T) {
	useCase := NewProcessPayment(infrastructure.NewMemoryPaymentRepository(), infrastructure.NewSimulatedAuthorizer(), &capturePublisher{})

	_, err := useCase.Execute(context.Background(), &ProcessPaymentCommand{Amount: 100, Currency: "USD"})
	assert.Error(t, err)

	_, err = useCase.Execute(context.Background(), &ProcessPaymentCommand{OrderID: "order-1", Amount: -1, Currency: "USD"})
	assert.Error(t, err)
}
