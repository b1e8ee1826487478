package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

func TestInviteEnrollsInRotation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	user, err := e.users.Invite(ctx, "Alice", "alice@example.com", entity.RoleTeamMember)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	agent, err := e.rotator.NextAgent(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, agent)
}

func TestInviteDuplicateEmail(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	_, err := e.users.Invite(ctx, "Alice", "alice@example.com", entity.RoleTeamMember)
	require.NoError(t, err)

	_, err = e.users.Invite(ctx, "Alice Again", "alice@example.com", entity.RoleTeamMember)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))
}

func TestDeleteLastSuperAdminBlocked(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	admin, err := e.users.Invite(ctx, "Root", "root@example.com", entity.RoleSuperAdmin)
	require.NoError(t, err)

	err = e.users.Delete(ctx, admin.ID)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeLastSuperAdmin))

	// A second active superadmin unblocks the removal.
	_, err = e.users.Invite(ctx, "Backup", "backup@example.com", entity.RoleSuperAdmin)
	require.NoError(t, err)
	require.NoError(t, e.users.Delete(ctx, admin.ID))
}

func TestToggleLastSuperAdminBlocked(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	admin, err := e.users.Invite(ctx, "Root", "root@example.com", entity.RoleSuperAdmin)
	require.NoError(t, err)

	_, err = e.users.ToggleActive(ctx, admin.ID)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeLastSuperAdmin))
}

func TestDeactivationLeavesRotation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	alice, err := e.users.Invite(ctx, "Alice", "alice@example.com", entity.RoleTeamMember)
	require.NoError(t, err)
	bob, err := e.users.Invite(ctx, "Bob", "bob@example.com", entity.RoleTeamMember)
	require.NoError(t, err)

	toggled, err := e.users.ToggleActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	for i := 0; i < 3; i++ {
		agent, err := e.rotator.NextAgent(ctx)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, agent)
	}

	// Reactivation rejoins at the end of the cycle.
	toggled, err = e.users.ToggleActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	agent, err := e.rotator.NextAgent(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, agent)
}

func TestDeleteUnknownUser(t *testing.T) {
	e := newEngine()

	err := e.users.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))
}
