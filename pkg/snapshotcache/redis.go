package snapshotcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// RedisSlot is a cross-process Slot backed by a Redis string key holding
// the canonical JSON payload plus a companion key holding its digest —
// standing in for a named shared-memory segment and its digest-stamped ack,
// shared by producer and consumer processes that don't live in the same Go
// runtime.
type RedisSlot struct {
	client     *redis.Client
	payloadKey string
	digestKey  string
	capacity   int
}

// NewRedisSlot constructs a slot keyed by keyPrefix+":payload" and
// keyPrefix+":digest". capacity, if nonzero, is the nominal byte budget for
// the 90%-full warning.
func NewRedisSlot(client *redis.Client, keyPrefix string, capacity int) *RedisSlot {
	return &RedisSlot{
		client:     client,
		payloadKey: keyPrefix + ":payload",
		digestKey:  keyPrefix + ":digest",
		capacity:   capacity,
	}
}

// Publish overwrites the slot's payload and digest keys.
func (s *RedisSlot) Publish(ctx context.Context, snap contracts.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshotcache: marshal snapshot: %w", err)
	}
	digest, err := digestOf(snap)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.payloadKey, payload, 0)
	pipe.Set(ctx, s.digestKey, digest, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("snapshotcache: publish: %w", err)
	}
	return nil
}

// Acquire blocks, polling at pollInterval, until the slot holds a payload,
// or ctx is done, and returns the current payload; RedisConsumerCursor
// tracks a consumer's last-seen digest.
func (s *RedisSlot) Acquire(ctx context.Context) (contracts.Snapshot, error) {
	return s.acquireSince(ctx, "")
}

func (s *RedisSlot) acquireSince(ctx context.Context, lastDigest string) (contracts.Snapshot, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		digest, err := s.client.Get(ctx, s.digestKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %v", contracts.ErrConnectionLost, err)
		}
		if digest != "" && digest != lastDigest {
			raw, err := s.client.Get(ctx, s.payloadKey).Bytes()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", contracts.ErrConnectionLost, err)
			}
			var snap contracts.Snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return nil, fmt.Errorf("snapshotcache: unmarshal snapshot: %w", err)
			}
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("snapshotcache: acquire: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// RedisConsumerCursor tracks one consumer's last-seen digest across
// repeated Acquire calls on a shared RedisSlot.
type RedisConsumerCursor struct {
	slot       *RedisSlot
	lastDigest string
}

// NewRedisConsumerCursor returns a cursor reading from slot.
func NewRedisConsumerCursor(slot *RedisSlot) *RedisConsumerCursor {
	return &RedisConsumerCursor{slot: slot}
}

// Next blocks until slot holds a payload this cursor has not yet seen.
func (c *RedisConsumerCursor) Next(ctx context.Context) (contracts.Snapshot, error) {
	snap, err := c.slot.acquireSince(ctx, c.lastDigest)
	if err != nil {
		return nil, err
	}
	digest, err := digestOf(snap)
	if err != nil {
		return nil, err
	}
	c.lastDigest = digest
	return snap, nil
}
