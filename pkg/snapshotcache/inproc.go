package snapshotcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// InProcSlot is a single-process Slot backed by a mutex-guarded value plus
// its last-published digest — the in-process analogue of a named counting
// semaphore guarding one shared-memory segment, used in single-process
// tests and single-binary deployments.
type InProcSlot struct {
	capacity int // nominal byte budget, 0 = unbounded

	mu         sync.Mutex
	cond       *sync.Cond
	snapshot   contracts.Snapshot
	digest     string
	hasPayload bool
}

// NewInProcSlot constructs an empty slot. capacity, if nonzero, is the
// nominal byte budget used for the 90%-full back-pressure warning.
func NewInProcSlot(capacity int) *InProcSlot {
	s := &InProcSlot{capacity: capacity}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Publish overwrites the slot's payload and wakes any consumer blocked in
// Acquire.
func (s *InProcSlot) Publish(ctx context.Context, snap contracts.Snapshot) error {
	digest, err := digestOf(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshot = snap
	s.digest = digest
	s.hasPayload = true
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// Acquire blocks until the slot holds a payload, or ctx is done, and returns
// the current payload. It keeps no per-consumer state, so repeated calls
// return the same snapshot until a new one is published; ConsumerCursor
// tracks a consumer's last-seen digest.
func (s *InProcSlot) Acquire(ctx context.Context) (contracts.Snapshot, error) {
	return s.acquireSince(ctx, "")
}

func (s *InProcSlot) acquireSince(ctx context.Context, lastDigest string) (contracts.Snapshot, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("snapshotcache: acquire: %w", ctx.Err())
		}
		if s.hasPayload && s.digest != lastDigest {
			snap := s.snapshot
			lastDigest = s.digest
			return snap, nil
		}
		s.cond.Wait()
	}
}

// ConsumerCursor tracks one consumer's last-seen digest across repeated
// Acquire calls on a shared InProcSlot, implementing the release → yield →
// acquire loop explicitly rather than relying on InProcSlot's single
// implicit consumer.
type ConsumerCursor struct {
	slot       *InProcSlot
	lastDigest string
}

// NewConsumerCursor returns a cursor reading from slot, having seen nothing
// yet.
func NewConsumerCursor(slot *InProcSlot) *ConsumerCursor {
	return &ConsumerCursor{slot: slot}
}

// Next blocks until slot holds a payload this cursor has not yet seen.
func (c *ConsumerCursor) Next(ctx context.Context) (contracts.Snapshot, error) {
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
