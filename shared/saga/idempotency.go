package saga

import (
	"context"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/events"
)

// ProcessedStore remembers which deliveries a consumer has already handled
type ProcessedStore interface {
	IsProcessed(ctx context.Context, consumerID string, key string) (bool, error)
	MarkProcessed(ctx context.Context, consumerID string, key string) error
}

// IdempotencyGuard drops duplicate deliveries before they reach the inner
// handler. Delivery is at-least-once everywhere in this system; domain-level
// checks (entity already exists, state already reached) remain the authority
// and this guard only spares them the obvious replays.
//
// The deduplication key is the event id: the same logical message redelivered
// by the broker carries the same id, while the parallel sync/async payment
// paths produce distinct events and are deduplicated by order id in the
// domain instead. A delivery is marked processed only after the handler
// succeeds, so a failed delivery stays eligible for retry.
type IdempotencyGuard struct {
	inner events.EventHandler
	store ProcessedStore
}

// NewIdempotencyGuard wraps handler with duplicate-delivery suppression
func NewIdempotencyGuard(inner events.EventHandler, store ProcessedStore) *IdempotencyGuard {
	return &IdempotencyGuard{
		inner: inner,
		store: store,
	}
}

// HandlerID implements events.EventHandler
func (g *IdempotencyGuard) HandlerID() string {
	return g.inner.HandlerID()
}

// Handle implements events.EventHandler. A replayed delivery is acknowledged
// without reprocessing.
func (g *IdempotencyGuard) Handle(ctx context.Context, event *events.Event) error {
	processed, err := g.store.IsProcessed(ctx, g.inner.HandlerID(), event.ID.String())
	if err != nil {
		return errors.Wrap(err, "failed to check processed store")
	}
	if processed {
		return nil
	}

	if err := g.inner.Handle(ctx, event); err != nil {
		return err
	}

	if err := g.store.MarkProcessed(ctx, g.inner.HandlerID(), event.ID.String()); err != nil {
		// The handler already ran; failing here would trigger a redelivery
		// the domain-level checks will absorb.
		return nil
	}
	return nil
}
