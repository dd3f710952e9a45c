package requestqueue

import (
	"context"
	"sync/atomic"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Handler processes one popped request.
type Handler func(ctx context.Context, req contracts.Request)

// Notifier drives a Pop/handle/re-arm loop against a Queue: it pops one
// request, invokes handler, then re-arms for the next Pop — the Go
// equivalent of the original message queue's async-notify callback that
// must explicitly re-register itself after each delivery. A running flag
// guards against re-arming after Stop has been called, the one place in
// this module where a process-wide boolean flag (rather than a
// context.Context) is the idiomatic signal, matching the original's
// explicit "running" check before the next notify registration.
type Notifier struct {
	queue   Queue
	handler Handler
	running atomic.Bool
}

// NewNotifier constructs a notifier over queue that invokes handler for
// each popped request.
func NewNotifier(queue Queue, handler Handler) *Notifier {
	return &Notifier{queue: queue, handler: handler}
}

// Run pops and handles requests in a loop until ctx is done or Stop is
// called, re-arming after every delivery.
func (n *Notifier) Run(ctx context.Context) {
	n.running.Store(true)
	for n.running.Load() {
		req, err := n.queue.Pop(ctx)
		if err != nil {
			return
		}
		if !n.running.Load() {
			return
		}
		n.handler(ctx, req)
		// re-arm: loop condition re-checks n.running before the next Pop.
	}
}

// Stop requests the notifier loop to exit after its current handler call
// returns, without re-arming for another Pop.
func (n *Notifier) Stop() {
	n.running.Store(false)
}
