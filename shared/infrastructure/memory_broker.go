package infrastructure

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/pkg/errors"

	"github.com/swiftcart/order-system/shared/correlation"
	"github.com/swiftcart/order-system/shared/events"
)

// MemoryBroker is the in-process transport. Each subscription owns a fixed
// set of partitions; an event is routed to a partition by hashing its
// aggregate id, so all events for one order land on the same partition and
// are handled one at a time in production order. Partitions run in parallel
// with each other, which is the only concurrency consumers see.
//
// The broker delivers each message once per subscription; at-least-once
// semantics (redelivery, replay) are exercised by publishing again, and
// consumers stay safe through their idempotency checks.
type MemoryBroker struct {
	mu         sync.RWMutex
	subs       map[events.Topic][]*memorySubscription
	partitions int
	closed     bool
	inflight   sync.WaitGroup
}

type memorySubscription struct {
	handler    events.EventHandler
	partitions []chan *events.Event
	done       sync.WaitGroup
}

type MemoryBrokerOption func(*MemoryBroker)

// WithPartitions sets the per-subscription partition count
func WithPartitions(n int) MemoryBrokerOption {
	return func(b *MemoryBroker) { b.partitions = n }
}

// NewMemoryBroker creates a broker with 4 partitions per subscription
func NewMemoryBroker(opts ...MemoryBrokerOption) *MemoryBroker {
	b := &MemoryBroker{
		subs:       make(map[events.Topic][]*memorySubscription),
		partitions: 4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ events.Publisher = (*MemoryBroker)(nil)
var _ events.Subscriber = (*MemoryBroker)(nil)

// Subscribe registers a handler for a topic and starts its partition workers
func (b *MemoryBroker) Subscribe(ctx context.Context, topic events.Topic, handler events.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("broker is closed")
	}

	sub := &memorySubscription{
		handler:    handler,
		partitions: make([]chan *events.Event, b.partitions),
	}

	for i := range sub.partitions {
		ch := make(chan *events.Event, 64)
		sub.partitions[i] = ch
		sub.done.Add(1)
		go b.runPartition(sub, ch)
	}

	b.subs[topic] = append(b.subs[topic], sub)
	return nil
}

// Publish delivers events to every subscription of their topic. Events with
// no subscribers are dropped, matching a broker with no bound queue.
func (b *MemoryBroker) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, event := range evts {
		b.mu.RLock()
		if b.closed {
			b.mu.RUnlock()
			return errors.New("broker is closed")
		}
		subs := b.subs[event.Topic]

		for _, sub := range subs {
			idx := partitionFor(event.AggregateID.String(), len(sub.partitions))
			b.inflight.Add(1)
			select {
			case sub.partitions[idx] <- event.Clone():
			case <-ctx.Done():
				b.inflight.Done()
				b.mu.RUnlock()
				return ctx.Err()
			}
		}
		b.mu.RUnlock()
	}
	return nil
}

func (b *MemoryBroker) runPartition(sub *memorySubscription, ch chan *events.Event) {
	defer sub.done.Done()
	for event := range ch {
		ctx := correlation.Extract(context.Background(), event)
		// Errors are the wrapping handler's concern (retry, dead-letter);
		// a failure that escapes means the message was given up on.
		_ = sub.handler.Handle(ctx, event)
		b.inflight.Done()
	}
}

// Drain blocks until every published message has been handled. Chained
// publishes made inside handlers are counted before the triggering delivery
// completes, so a single Drain observes the whole cascade.
func (b *MemoryBroker) Drain() {
	b.inflight.Wait()
}

// Close stops all partition workers after in-flight messages finish
func (b *MemoryBroker) Close() error {
	b.inflight.Wait()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[events.Topic][]*memorySubscription)
	b.mu.Unlock()

	for _, topicSubs := range subs {
		for _, sub := range topicSubs {
			for _, ch := range sub.partitions {
				close(ch)
			}
			sub.done.Wait()
		}
	}
	return nil
}

func partitionFor(key string, partitions int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % partitions
}
