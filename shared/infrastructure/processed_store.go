package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/swiftcart/order-system/shared/saga"
)

// RedisProcessedStore tracks handled deliveries in Redis so duplicate
// suppression survives consumer restarts. Keys expire: a replay older than
// the TTL falls through to the domain-level idempotency checks instead.
type RedisProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ saga.ProcessedStore = (*RedisProcessedStore)(nil)

// NewRedisProcessedStore creates a store with a 24h mark TTL
func NewRedisProcessedStore(client *redis.Client) *RedisProcessedStore {
	return &RedisProcessedStore{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (s *RedisProcessedStore) IsProcessed(ctx context.Context, consumerID string, key string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(consumerID, key)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check processed key")
	}
	return n > 0, nil
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, consumerID string, key string) error {
	if err := s.client.Set(ctx, processedKey(consumerID, key), 1, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to mark processed key")
	}
	return nil
}

func processedKey(consumerID, key string) string {
	return fmt.Sprintf("processed:%s:%s", consumerID, key)
}

// MemoryProcessedStore is the in-process ProcessedStore used when no Redis
// is configured
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var _ saga.ProcessedStore = (*MemoryProcessedStore)(nil)

func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{
		seen: make(map[string]struct{}),
	}
}

func (s *MemoryProcessedStore) IsProcessed(_ context.Context, consumerID string, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[processedKey(consumerID, key)]
	return ok, nil
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, consumerID string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[processedKey(consumerID, key)] = struct{}{}
	return nil
}
