// Package requestqueue implements the priority message queue (C6): requests
// are consumed in ascending (priority, timestamp) order — lower priority
// number first, FIFO among ties — with at-most-once delivery and a
// re-arming notification handler.
package requestqueue

import (
	"context"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Queue is satisfied by both the in-process heap queue and the Redis sorted
// set queue.
type Queue interface {
	// Push enqueues req for consumption in priority order.
	Push(ctx context.Context, req contracts.Request) error
	// Pop blocks until a request is available (or ctx is done), removing
	// and returning exactly one: at-most-once delivery, never handed to two
	// callers.
	Pop(ctx context.Context) (contracts.Request, error)
	// Len reports the number of requests currently queued.
	Len(ctx context.Context) (int, error)
}

// less implements the queue's total order: ascending priority, ties broken
// by ascending timestamp (FIFO).
func less(a, b contracts.Request) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Timestamp.Before(b.Timestamp)
}
