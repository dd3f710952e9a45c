package mappedstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/mappedstore"
)

func openTestStore(t *testing.T) *mappedstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapped.db")
	s, err := mappedstore.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mappedReq(id string, priority int, ts time.Time) contracts.MappedRequest {
	return contracts.MappedRequest{
		Request: contracts.Request{RequestID: id, Impact: "HighImpact", Priority: priority},
		AffectedEndpoints: []contracts.AffectedEndpoint{
			{EndpointID: "motor_MotorSpeed_SP", Relative: true, Amount: 10},
		},
		GenerationTime: ts,
	}
}

func TestStore_InsertAndPullHighest_OrdersByPriorityThenTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("low-later", 5, base.Add(2*time.Second)), "d", ""))
	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("high", 1, base.Add(time.Second)), "d", ""))
	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("low-earlier", 5, base), "d", ""))

	first, _, _, err := s.PullHighest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "high", first.Request.RequestID)

	second, _, _, err := s.PullHighest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "low-earlier", second.Request.RequestID)

	third, _, _, err := s.PullHighest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "low-later", third.Request.RequestID)
}

func TestStore_PullHighest_RemovesPulledRequest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("only", 1, time.Now()), "d", ""))
	_, _, _, err := s.PullHighest(ctx)
	require.NoError(t, err)

	_, _, _, err = s.PullHighest(ctx)
	require.ErrorIs(t, err, mappedstore.ErrEmpty)
}

func TestStore_InsertOrReplace_ReplacesExistingRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("dup", 5, time.Now()), "first", ""))
	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("dup", 1, time.Now()), "second", ""))

	mapped, description, _, err := s.PullHighest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dup", mapped.Request.RequestID)
	assert.Equal(t, 1, mapped.Request.Priority)
	assert.Equal(t, "second", description)

	_, _, _, err = s.PullHighest(ctx)
	require.True(t, errors.Is(err, mappedstore.ErrEmpty))
}

func TestStore_PullHighest_RoundTripsAffectedEndpoints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrReplace(ctx, mappedReq("rt", 1, time.Now()), "d", "tag-a"))
	mapped, _, tags, err := s.PullHighest(ctx)
	require.NoError(t, err)
	require.Len(t, mapped.AffectedEndpoints, 1)
	assert.Equal(t, "motor_MotorSpeed_SP", mapped.AffectedEndpoints[0].EndpointID)
	assert.Equal(t, "tag-a", tags)
}
