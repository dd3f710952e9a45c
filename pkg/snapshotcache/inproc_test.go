package snapshotcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/snapshotcache"
)

func TestInProcSlot_PublishAcquire(t *testing.T) {
	slot := snapshotcache.NewInProcSlot(0)
	cursor := snapshotcache.NewConsumerCursor(slot)

	snap := contracts.Snapshot{"MotorSpeed_SP": {Value: 900, Type: "u16"}}
	require.NoError(t, slot.Publish(context.Background(), snap))

	got, err := cursor.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestInProcSlot_AcquireBlocksUntilNewDigest(t *testing.T) {
	slot := snapshotcache.NewInProcSlot(0)
	cursor := snapshotcache.NewConsumerCursor(slot)

	snap := contracts.Snapshot{"MotorSpeed_SP": {Value: 900, Type: "u16"}}
	require.NoError(t, slot.Publish(context.Background(), snap))
	_, err := cursor.Next(context.Background())
	require.NoError(t, err)

	resultCh := make(chan contracts.Snapshot, 1)
	go func() {
		snap, err := cursor.Next(context.Background())
		if err == nil {
			resultCh <- snap
		}
	}()

	select {
	case <-resultCh:
		t.Fatal("Next should still be blocked: no new digest published yet")
	case <-time.After(50 * time.Millisecond):
	}

	next := contracts.Snapshot{"MotorSpeed_SP": {Value: 950, Type: "u16"}}
	require.NoError(t, slot.Publish(context.Background(), next))

	select {
	case got := <-resultCh:
		assert.Equal(t, next, got)
	case <-time.After(time.Second):
		t.Fatal("Next should have unblocked after a new publish")
	}
}

func TestInProcSlot_AcquireRespectsContextCancellation(t *testing.T) {
	slot := snapshotcache.NewInProcSlot(0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := slot.Acquire(ctx)
	assert.Error(t, err)
}

func TestWarnIfNearCapacity(t *testing.T) {
	assert.True(t, snapshotcache.WarnIfNearCapacity(950, 1000))
	assert.False(t, snapshotcache.WarnIfNearCapacity(500, 1000))
	assert.False(t, snapshotcache.WarnIfNearCapacity(950, 0))
}
