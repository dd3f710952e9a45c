package requestqueue

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// requestHeap is a container/heap.Interface over contracts.Request ordered
// by the queue's (priority, timestamp) total order.
type requestHeap []contracts.Request

func (h requestHeap) Len() int            { return len(h) }
func (h requestHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h requestHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any)         { *h = append(*h, x.(contracts.Request)) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// InProcQueue is a single-process priority queue backed by container/heap
// and a condition variable, the in-process analogue of a named priority
// message queue.
type InProcQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	heap requestHeap
}

// NewInProcQueue returns an empty queue.
func NewInProcQueue() *InProcQueue {
	q := &InProcQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues req and wakes one blocked consumer.
func (q *InProcQueue) Push(_ context.Context, req contracts.Request) error {
	q.mu.Lock()
	heap.Push(&q.heap, req)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

// Pop blocks until a request is available or ctx is done, then removes and
// returns exactly one.
func (q *InProcQueue) Pop(ctx context.Context) (contracts.Request, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.heap.Len() == 0 {
		if ctx.Err() != nil {
			return contracts.Request{}, fmt.Errorf("%w: %v", contracts.ErrQueueUnavailable, ctx.Err())
		}
		q.cond.Wait()
	}
	req := heap.Pop(&q.heap).(contracts.Request)
	return req, nil
}

// Len reports the number of requests currently queued.
func (q *InProcQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len(), nil
}
