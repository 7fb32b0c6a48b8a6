package infrastructure

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/payment-service/domain"
	"github.com/swiftcart/order-system/shared/models"
)

// SimulatedAuthorizer stands in for a card network. It approves everything
// unless a decline ceiling is set, and can be flipped unavailable to exercise
// the caller's breaker without a real outage.
type SimulatedAuthorizer struct {
	declineOver int64
	unavailable atomic.Bool
}

var _ domain.PaymentAuthorizer = (*SimulatedAuthorizer)(nil)

// NewSimulatedAuthorizer creates an authorizer that approves every charge
func NewSimulatedAuthorizer() *SimulatedAuthorizer {
	return &SimulatedAuthorizer{}
}

// WithDeclineOver declines charges strictly above limit minor units
func (a *SimulatedAuthorizer) WithDeclineOver(limit int64) *SimulatedAuthorizer {
	a.declineOver = limit
	return a
}

// SetUnavailable toggles simulated provider downtime
func (a *SimulatedAuthorizer) SetUnavailable(down bool) {
	a.unavailable.Store(down)
}

// Authorize implements domain.PaymentAuthorizer
func (a *SimulatedAuthorizer) Authorize(_ context.Context, orderID models.ID, amount models.Money) error {
	if a.unavailable.Load() {
		return errors.Errorf("payment provider unavailable for order %s", orderID)
	}
	if a.declineOver > 0 && amount.Amount > a.declineOver {
		return errors.Errorf("charge of %d %s declined", amount.Amount, amount.Currency)
	}
	return nil
}
