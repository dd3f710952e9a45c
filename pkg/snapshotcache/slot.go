// Package snapshotcache implements the snapshot cache (C2): a slot that a
// producer overwrites at one refresh rate and a consumer reads at another,
// reconciled with a release → yield → acquire delivery protocol so the
// consumer never observes a half-written payload and never busy-spins
// forever on stale data.
package snapshotcache

import (
	"context"
	"fmt"
	"time"

	"github.com/vorgateway/gateway/pkg/canonical"
	"github.com/vorgateway/gateway/pkg/contracts"
)

// capacityWarnThreshold is the fraction of slot capacity at which Publish
// logs a back-pressure warning (mirrors the original shared-memory
// handler's 90%-full log line).
const capacityWarnThreshold = 0.9

// Slot is the interface both the in-process and Redis-backed snapshot
// caches satisfy.
type Slot interface {
	// Publish overwrites the slot's payload unconditionally.
	Publish(ctx context.Context, snap contracts.Snapshot) error
	// Acquire blocks until the slot holds a published payload, or ctx is
	// done, and returns it. It does not track what a consumer has already
	// seen: a consumer that wants only new content compares digests and
	// re-acquires (ConsumerCursor, RedisConsumerCursor).
	Acquire(ctx context.Context) (contracts.Snapshot, error)
}

// capacityBytes is the nominal byte budget a slot implementation warns
// against when a published payload exceeds 90% of it. A value of 0 disables
// the warning.
type capacityBytes int

// WarnIfNearCapacity logs nothing itself (snapshotcache has no logger
// dependency of its own) but returns whether payloadLen crossed the warn
// threshold, so callers wire it into whatever structured logger they use.
func WarnIfNearCapacity(payloadLen int, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	return float64(payloadLen)/float64(capacity) >= capacityWarnThreshold
}

// digestOf computes the canonical digest of a snapshot for the ack
// protocol.
func digestOf(snap contracts.Snapshot) (string, error) {
	d, err := canonical.Digest(snap)
	if err != nil {
		return "", fmt.Errorf("snapshotcache: digest: %w", err)
	}
	return d, nil
}

// pollInterval is the yield duration between acquire retries, matching the
// original shared-memory handler's 10ms poll.
const pollInterval = 10 * time.Millisecond
