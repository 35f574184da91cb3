// Package idempotency deduplicates retried reservation requests. A reserve
// call that times out on the network has an unknown outcome; clients retry
// with the same Idempotency-Key and get the stored first response back
// instead of a spurious slot conflict.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another request with the same key is still being
// processed; the caller should re-query rather than race it.
var ErrInFlight = errors.New("request with this idempotency key is in flight")

const keyPrefix = "courtbook:idem:"

// pending marks a claimed key whose response has not been stored yet.
const pending = "__pending__"

// StoredResponse is the replayable outcome of the first request.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Store keeps idempotency records in redis with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates an idempotency store. TTL bounds how long retries replay.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Claim attempts to take ownership of key. It returns (nil, nil) when the
// caller owns the key and must proceed with the real work, a stored response
// when a finished request already used the key, or ErrInFlight while the
// first request is still running.
func (s *Store) Claim(ctx context.Context, key string) (*StoredResponse, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+key, pending, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	val, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Key expired between SetNX and Get; treat as in flight, the
		// client will retry.
		return nil, ErrInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pending {
		return nil, ErrInFlight
	}

	var stored StoredResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &stored, nil
}

// StoreResponse records the outcome for later replays of the same key.
func (s *Store) StoreResponse(ctx context.Context, key string, status int, body []byte) error {
	data, err := json.Marshal(StoredResponse{Status: status, Body: body})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency response: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failure whose outcome is safe to
// retry from scratch (e.g. validation errors before any write).
func (s *Store) Release(ctx context.Context, key string) {
	_ = s.rdb.Del(ctx, keyPrefix+key).Err()
}
