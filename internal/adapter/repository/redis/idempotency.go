package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingMarker is stored under a key while its first request is in flight.
const PendingMarker = "processing"

// Recorder receives Redis operation outcomes.
type Recorder interface {
	RecordRedis(operation string, err error)
}

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client   *redis.Client
	prefix   string
	recorder Recorder
}

// NewIdempotencyStore creates a new IdempotencyStore. recorder may be nil.
func NewIdempotencyStore(client *redis.Client, recorder Recorder) *IdempotencyStore {
	return &IdempotencyStore{
		client:   client,
		prefix:   "creditledger:idempotency:",
		recorder: recorder,
	}
}

// CheckAndSet atomically claims key. If the key is already held it returns
// true and whatever is stored: the cached response, or PendingMarker while the
// first request is still running. With a nil response the claim stores
// PendingMarker.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	var value any = PendingMarker
	if response != nil {
		value = response
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	s.record("setnx", err)
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	// Another request got there first
	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.CheckAndSet(ctx, key, response, ttl)
	}
	s.record("get", err)
	if err != nil {
		return false, nil, err
	}

	return true, existing, nil
}

// Update updates an existing idempotency key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	err := s.client.Set(ctx, s.prefix+key, response, ttl).Err()
	s.record("set", err)
	return err
}

// Delete releases a key, so a request that failed can be retried with it.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.prefix+key).Err()
	s.record("del", err)
	return err
}

func (s *IdempotencyStore) record(operation string, err error) {
	if s.recorder != nil {
		s.recorder.RecordRedis(operation, err)
	}
}
