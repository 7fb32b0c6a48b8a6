package infrastructure

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/shared/models"
	"github.com/swiftcart/order-system/shared/resilience"
)

// GuardedPaymentClient wraps the payment gateway with the policies guarding
// the one synchronous cross-service call on the critical path. The
// composition order is fixed: per-attempt timeout innermost, retry around
// it, circuit breaker outermost. A breaker rejection therefore never starts
// a retry sequence, and every exhausted retry sequence counts as a single
// failure in the breaker window.
//
// Whatever goes wrong, callers get the fallback result (payment pending)
// instead of an error; a degraded outcome is still a defined outcome.
type GuardedPaymentClient struct {
	inner       domain.PaymentGateway
	breaker     *resilience.CircuitBreaker
	retry       *resilience.Retry
	callTimeout time.Duration
}

var _ domain.PaymentGateway = (*GuardedPaymentClient)(nil)

type GuardedClientOption func(*GuardedPaymentClient)

// WithCallTimeout overrides the per-attempt timeout
func WithCallTimeout(d time.Duration) GuardedClientOption {
	return func(c *GuardedPaymentClient) { c.callTimeout = d }
}

// WithBreaker overrides the circuit breaker
func WithBreaker(breaker *resilience.CircuitBreaker) GuardedClientOption {
	return func(c *GuardedPaymentClient) { c.breaker = breaker }
}

// WithRetry overrides the retry policy
func WithRetry(retry *resilience.Retry) GuardedClientOption {
	return func(c *GuardedPaymentClient) { c.retry = retry }
}

// NewGuardedPaymentClient creates the guarded client with the default
// policies: 3s call timeout, 3 attempts at 1s/2s/4s backoff, breaker over a
// 10-call window opening at 50% failures and cooling off for 10s.
func NewGuardedPaymentClient(inner domain.PaymentGateway, opts ...GuardedClientOption) *GuardedPaymentClient {
	c := &GuardedPaymentClient{
		inner:       inner,
		breaker:     resilience.NewCircuitBreaker("payment-service"),
		retry:       resilience.NewRetry(),
		callTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breaker exposes the breaker for observability
func (c *GuardedPaymentClient) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// ProcessPayment implements domain.PaymentGateway
func (c *GuardedPaymentClient) ProcessPayment(ctx context.Context, orderID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	var result *domain.PaymentResult

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retry.Do(ctx, func(ctx context.Context) error {
			res, err := c.attempt(ctx, orderID, amount)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpenCircuit) {
			log.Printf("payment call rejected by open circuit for order %s, returning fallback", orderID)
		} else {
			log.Printf("payment call failed for order %s, returning fallback: %v", orderID, err)
		}
		return c.fallback(), nil
	}

	return result, nil
}

// attempt makes one timed call to the payment service. Errors coming back
// are transport failures by contract (a declined payment is a result, not an
// error), so they are marked transient for the retry policy; an expired
// attempt deadline is transient already.
func (c *GuardedPaymentClient) attempt(ctx context.Context, orderID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	res, err := c.inner.ProcessPayment(attemptCtx, orderID, amount)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrap(context.DeadlineExceeded, "payment call timed out")
		}
		return nil, resilience.MarkTransient(err)
	}
	return res, nil
}

func (c *GuardedPaymentClient) fallback() *domain.PaymentResult {
	return &domain.PaymentResult{Status: domain.PaymentResultPending}
}
