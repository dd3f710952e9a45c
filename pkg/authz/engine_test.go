package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/authz"
)

func testPolicy() authz.Policy {
	return authz.Policy{
		Permissions: []authz.Permission{
			{Role: "Operator", Object: "MotorSpeed_SP", Action: "write"},
			{Role: "Operator", Object: "drive_params", Action: "write"},
			{Role: authz.AdminRole, Object: "*", Action: "*"},
		},
		ResourceRoles: map[string][]string{
			"drive_params": {"MotorSpeed_SP", "MotorTorque_SP"},
		},
		RoleAssignments: map[string][]string{
			"john":  {"Operator"},
			"alice": {authz.AdminRole},
		},
	}
}

func TestEngine_Authorize(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	ctx := context.Background()

	ok, err := e.Authorize(ctx, "john", "MotorSpeed_SP", "write")
	require.NoError(t, err)
	assert.True(t, ok, "john should be able to write MotorSpeed_SP directly")

	ok, err = e.Authorize(ctx, "john", "MotorTorque_SP", "write")
	require.NoError(t, err)
	assert.True(t, ok, "john should be able to write MotorTorque_SP via the drive_params resource role")

	ok, err = e.Authorize(ctx, "john", "SafetyInterlock", "write")
	require.NoError(t, err)
	assert.False(t, ok, "john has no permission over SafetyInterlock")

	ok, err = e.Authorize(ctx, "horst", "MotorSpeed_SP", "write")
	require.NoError(t, err)
	assert.False(t, ok, "horst has no role assignment")
}

func TestEngine_IsAdmin(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	assert.True(t, e.IsAdmin("alice"))
	assert.False(t, e.IsAdmin("john"))
}

func TestEngine_RolesOfAndUsersInRole(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	assert.ElementsMatch(t, []string{"Operator"}, e.RolesOf("john"))
	assert.ElementsMatch(t, []string{"alice"}, e.UsersInRole(authz.AdminRole))
}

func TestEngine_AddRemoveRole(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	e.AddRole("horst", "Operator")
	assert.ElementsMatch(t, []string{"Operator"}, e.RolesOf("horst"))

	require.NoError(t, e.RemoveRole("horst", "Operator"))
	assert.Empty(t, e.RolesOf("horst"))
}

func TestEngine_LastAdminCannotBeRemoved(t *testing.T) {
	e := authz.NewEngine(testPolicy())

	err := e.RemoveRole("alice", authz.AdminRole)
	assert.ErrorIs(t, err, authz.ErrLastAdmin)

	err = e.DeleteUser("alice")
	assert.ErrorIs(t, err, authz.ErrLastAdmin)
}

func TestEngine_LastAdminCanBeRemovedOnceAnotherExists(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	e.AddRole("bob", authz.AdminRole)

	require.NoError(t, e.RemoveRole("alice", authz.AdminRole))
	assert.True(t, e.IsAdmin("bob"))
	assert.False(t, e.IsAdmin("alice"))
}

func TestEngine_UserExistsAndDelete(t *testing.T) {
	e := authz.NewEngine(testPolicy())
	assert.True(t, e.UserExists("john"))
	assert.False(t, e.UserExists("nobody"))

	e.AddRole("bob", "Operator")
	require.NoError(t, e.DeleteUser("bob"))
	assert.False(t, e.UserExists("bob"))
}
