package requestqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/requestqueue"
)

func req(priority int, ts time.Time, id string) contracts.Request {
	return contracts.Request{RequestID: id, Priority: priority, Timestamp: ts}
}

func TestInProcQueue_OrdersByPriorityThenTimestamp(t *testing.T) {
	q := requestqueue.NewInProcQueue()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, q.Push(ctx, req(5, base.Add(2*time.Second), "low-prio-later")))
	require.NoError(t, q.Push(ctx, req(1, base.Add(1*time.Second), "high-prio")))
	require.NoError(t, q.Push(ctx, req(5, base.Add(1*time.Second), "low-prio-earlier")))

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "high-prio", first.RequestID)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "low-prio-earlier", second.RequestID, "ties broken by FIFO timestamp order")

	third, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "low-prio-later", third.RequestID)
}

func TestInProcQueue_PopBlocksUntilPush(t *testing.T) {
	q := requestqueue.NewInProcQueue()
	ctx := context.Background()

	resultCh := make(chan contracts.Request, 1)
	go func() {
		r, err := q.Pop(ctx)
		if err == nil {
			resultCh <- r
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(ctx, req(3, time.Now(), "arrives-late")))

	select {
	case r := <-resultCh:
		assert.Equal(t, "arrives-late", r.RequestID)
	case <-time.After(time.Second):
		t.Fatal("Pop should have unblocked after Push")
	}
}

func TestInProcQueue_PopRespectsContextCancellation(t *testing.T) {
	q := requestqueue.NewInProcQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.Error(t, err)
}

func TestInProcQueue_AtMostOnceDelivery(t *testing.T) {
	q := requestqueue.NewInProcQueue()
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, req(1, time.Now(), "only-once")))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = q.Pop(ctx)
	require.NoError(t, err)

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNotifier_StopPreventsRearm(t *testing.T) {
	q := requestqueue.NewInProcQueue()
	ctx := context.Background()

	var handled int
	notifier := requestqueue.NewNotifier(q, func(ctx context.Context, r contracts.Request) {
		handled++
	})

	require.NoError(t, q.Push(ctx, req(1, time.Now(), "one")))
	require.NoError(t, q.Push(ctx, req(1, time.Now().Add(time.Millisecond), "two")))

	done := make(chan struct{})
	go func() {
		notifier.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	notifier.Stop()
	require.NoError(t, q.Push(ctx, req(1, time.Now(), "should-not-be-handled-after-stop")))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier should have stopped")
	}

	assert.GreaterOrEqual(t, handled, 1)
}
