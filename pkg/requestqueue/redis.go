package requestqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// RedisQueue is a cross-process priority queue backed by a Redis sorted
// set: the score encodes (priority, timestamp) so ZPOPMIN always yields the
// queue's total order, with BLPOP on a companion notification list standing
// in for the message queue's async-notify callback.
type RedisQueue struct {
	client     *redis.Client
	setKey     string
	notifyKey  string
}

// NewRedisQueue constructs a queue backed by keyPrefix+":set" and
// keyPrefix+":notify".
func NewRedisQueue(client *redis.Client, keyPrefix string) *RedisQueue {
	return &RedisQueue{
		client:    client,
		setKey:    keyPrefix + ":set",
		notifyKey: keyPrefix + ":notify",
	}
}

// score encodes (priority, timestamp) into a single ascending float64: the
// priority dominates the high-order digits so lower-priority-number members
// always sort first, ties broken by ascending timestamp.
func score(req contracts.Request) float64 {
	return float64(req.Priority)*1e13 + float64(req.Timestamp.UnixMilli())
}

// Push enqueues req into the sorted set and notifies one blocked consumer.
func (q *RedisQueue) Push(ctx context.Context, req contracts.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("requestqueue: marshal request: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, q.setKey, redis.Z{Score: score(req), Member: payload})
	pipe.LPush(ctx, q.notifyKey, "1")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: push: %v", contracts.ErrQueueUnavailable, err)
	}
	return nil
}

// Pop blocks (via BLPOP on the notify list) until a member is available,
// then ZPOPMIN removes and returns exactly one — at-most-once, since
// ZPOPMIN atomically removes the member it returns.
func (q *RedisQueue) Pop(ctx context.Context) (contracts.Request, error) {
	for {
		results, err := q.client.ZPopMin(ctx, q.setKey, 1).Result()
		if err != nil {
			return contracts.Request{}, fmt.Errorf("%w: pop: %v", contracts.ErrQueueUnavailable, err)
		}
		if len(results) > 0 {
			var req contracts.Request
			member, _ := results[0].Member.(string)
			if err := json.Unmarshal([]byte(member), &req); err != nil {
				return contracts.Request{}, fmt.Errorf("requestqueue: unmarshal request: %w", err)
			}
			return req, nil
		}

		// Nothing queued yet: block on the notification list until a Push
		// arrives or ctx is done, then re-check the set (the notification
		// is just a wake-up signal, not the payload itself).
		if _, err := q.client.BLPop(ctx, 0, q.notifyKey).Result(); err != nil {
			return contracts.Request{}, fmt.Errorf("%w: wait: %v", contracts.ErrQueueUnavailable, err)
		}
	}
}

// Len reports the number of requests currently queued.
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, q.setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: len: %v", contracts.ErrQueueUnavailable, err)
	}
	return int(n), nil
}
