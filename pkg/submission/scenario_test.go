package submission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/mapping"
	"github.com/vorgateway/gateway/pkg/requestqueue"
	"github.com/vorgateway/gateway/pkg/submission"
)

const (
	scenarioUsername = "john"
	scenarioPassword = "Admin123_secure_password_2025"
)

// newScenarioServer builds a submission.Server wired the way the Interface
// partition wires one, with one pre-provisioned user "john" holding the
// "Operator" role and a single mapping rule set keyed by impact "Motor
// Speed Configuration", matching the literal end-to-end scenarios.
func newScenarioServer(t *testing.T) (*submission.Server, requestqueue.Queue) {
	t.Helper()
	ctx := context.Background()

	credStore, err := credentials.NewStore(ctx, ":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { credStore.Close() })
	_, err = credStore.Create(ctx, "user-john", scenarioUsername, scenarioPassword)
	require.NoError(t, err)

	engine := authz.NewEngine(authz.Policy{
		Permissions: []authz.Permission{
			{Role: "Operator", Object: "MotorSpeed_SP", Action: "write"},
		},
		RoleAssignments: map[string][]string{
			scenarioUsername: {"Operator"},
		},
	})

	queue := requestqueue.NewInProcQueue()
	srv := submission.NewServer(credStore, engine, queue, nil)
	return srv, queue
}

// S1 Happy path.
func TestScenario_S1_HappyPath(t *testing.T) {
	srv, queue := newScenarioServer(t)
	ctx := context.Background()

	requestID, _, notification, err := srv.Submit(
		ctx, scenarioUsername, scenarioPassword, time.Now(),
		[]string{"raise motor speed"}, "Motor Speed Configuration",
		"MotorSpeed_SP", "900", 5,
	)
	require.NoError(t, err)
	assert.Equal(t, "Submission received", notification)
	assert.NotEmpty(t, requestID)

	queued, err := queue.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, scenarioUsername, queued.IssuerID)
	assert.Equal(t, "900", queued.Modification)

	ruleSets := mapping.RuleSets{
		"Motor Speed Configuration": contracts.RuleSet{
			Impact: "Motor Speed Configuration",
			Rules: []contracts.MappingRule{
				{RuleID: "M1", EndpointIdentifier: "motor", UnitOfChange: "absolute", AcceptanceConstraint: "== 900"},
			},
		},
	}
	mapper := mapping.NewMapper(ruleSets)
	mapped, record, err := mapper.Map(queued)
	require.NoError(t, err)
	assert.Equal(t, "Mapping completed", record.Result)
	require.Len(t, mapped.AffectedEndpoints, 1)
	assert.False(t, mapped.AffectedEndpoints[0].Relative)
	assert.Equal(t, 900.0, mapped.AffectedEndpoints[0].Amount)
}

// S2 Auth failure.
func TestScenario_S2_AuthFailure(t *testing.T) {
	srv, queue := newScenarioServer(t)
	ctx := context.Background()

	_, _, notification, err := srv.Submit(
		ctx, scenarioUsername, "wrong", time.Now(),
		nil, "Motor Speed Configuration", "MotorSpeed_SP", "900", 5,
	)
	require.NoError(t, err)
	assert.Equal(t, "Authentication failed for john", notification)

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// S3 Authorization failure.
func TestScenario_S3_AuthorizationFailure(t *testing.T) {
	ctx := context.Background()
	credStore, err := credentials.NewStore(ctx, ":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { credStore.Close() })
	_, err = credStore.Create(ctx, "user-horst", "horst", scenarioPassword)
	require.NoError(t, err)

	engine := authz.NewEngine(authz.Policy{}) // horst holds no role assignments
	queue := requestqueue.NewInProcQueue()
	srv := submission.NewServer(credStore, engine, queue, nil)

	_, _, notification, err := srv.Submit(
		ctx, "horst", scenarioPassword, time.Now(),
		nil, "Motor Speed Configuration", "MotorSpeed_SP", "900", 5,
	)
	require.NoError(t, err)
	assert.Equal(t, "Request authorization failed: horst", notification)

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// S4 Mapping miss: the request passes verification and submission, but the
// mapper finds no rule set for an unknown impact.
func TestScenario_S4_MappingMiss(t *testing.T) {
	srv, queue := newScenarioServer(t)
	ctx := context.Background()

	_, _, notification, err := srv.Submit(
		ctx, scenarioUsername, scenarioPassword, time.Now(),
		nil, "Unknown Impact", "MotorSpeed_SP", "900", 5,
	)
	require.NoError(t, err)
	assert.Equal(t, "Submission received", notification)

	queued, err := queue.Pop(ctx)
	require.NoError(t, err)

	mapper := mapping.NewMapper(mapping.RuleSets{})
	_, record, err := mapper.Map(queued)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMappingNoRuleSet))
	assert.Equal(t, "Mapping failed: no matching rule set", record.Result)
}

// S6 Priority ordering.
func TestScenario_S6_PriorityOrdering(t *testing.T) {
	srv, queue := newScenarioServer(t)
	ctx := context.Background()

	base := time.Now()
	submissions := []struct {
		priority int
		delay    time.Duration
	}{
		{10, 0},
		{3, time.Millisecond},
		{7, 2 * time.Millisecond},
		{3, 3 * time.Millisecond},
	}
	for _, s := range submissions {
		_, _, notification, err := srv.Submit(
			ctx, scenarioUsername, scenarioPassword, base.Add(s.delay),
			nil, "Motor Speed Configuration", "MotorSpeed_SP", "900", s.priority,
		)
		require.NoError(t, err)
		assert.Equal(t, "Submission received", notification)
	}

	// The queue orders by (priority, timestamp): 3 (earliest), 3 (later), 7, 10.
	want := []int{3, 3, 7, 10}
	for _, priority := range want {
		req, err := queue.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, priority, req.Priority)
	}
}
