package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestEmptyRoleGrantsNothing(t *testing.T) {
	empty := EmptyRole()
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.HasPermission(PermCreateClient))
	assert.False(t, empty.HasPermission(PermDeleteAdmin))
	assert.False(t, empty.CanManageClients())
	assert.False(t, empty.CanManageAdmins())
}

func TestAdminRegistrySystemRoles(t *testing.T) {
	reg := NewAdminRegistry()

	t.Run("executor grants task permissions only", func(t *testing.T) {
		executor := reg.RoleByID(RoleExecutor)
		require.False(t, executor.IsEmpty())
		assert.True(t, executor.HasPermission(PermExecuteTask1))
		assert.False(t, executor.HasPermission(PermCreateClient))
		assert.False(t, executor.CanManageClients())
	})

	t.Run("manager manages clients, not admins", func(t *testing.T) {
		manager := reg.RoleByID(RoleManager)
		assert.True(t, manager.CanManageClients())
		assert.False(t, manager.CanManageAdmins())
		assert.True(t, manager.HasPermission(PermDeleteClient))
	})

	t.Run("supervisor manages admins", func(t *testing.T) {
		supervisor := reg.RoleByID(RoleSupervisor)
		assert.True(t, supervisor.CanManageAdmins())
		assert.True(t, supervisor.HasPermission(PermUpdateAdmin))
		assert.True(t, supervisor.HasPermission(PermViewAuditLog))
	})
}

func TestRoleLookupMissBehavior(t *testing.T) {
	reg := NewAdminRegistry()

	t.Run("RoleByID never fails", func(t *testing.T) {
		role := reg.RoleByID(999)
		assert.True(t, role.IsEmpty())
		assert.False(t, role.HasPermission(PermViewClient))
	})

	t.Run("RequireRoleByID fails with not found", func(t *testing.T) {
		_, err := reg.RequireRoleByID(999)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestCreateCustomRole(t *testing.T) {
	reg := NewAdminRegistry()

	role, err := reg.CreateCustomRole("auditor", "Read-only audit access",
		[]Permission{PermViewAuditLog, PermExportData})
	require.NoError(t, err)
	assert.Equal(t, 4, role.ID, "custom role takes the next integer id")
	assert.False(t, role.System)
	assert.True(t, role.HasPermission(PermExportData))

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := reg.CreateCustomRole("auditor", "dup", nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	t.Run("duplicate id rejected on Add", func(t *testing.T) {
		err := reg.Add(role)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func TestUpdateRolePermissions(t *testing.T) {
	reg := NewAdminRegistry()

	t.Run("system role rejects modification", func(t *testing.T) {
		_, err := reg.UpdateRolePermissions(RoleManager, []Permission{PermViewClient})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeSecurity))
	})

	t.Run("custom role gets a new value under the same id", func(t *testing.T) {
		role, err := reg.CreateCustomRole("limited", "", []Permission{PermViewClient})
		require.NoError(t, err)

		updated, err := reg.UpdateRolePermissions(role.ID, []Permission{PermViewClient, PermUpdateClient})
		require.NoError(t, err)
		assert.Equal(t, role.ID, updated.ID)
		assert.True(t, updated.HasPermission(PermUpdateClient))
		assert.False(t, role.HasPermission(PermUpdateClient), "original role value stays immutable")
		assert.True(t, reg.RoleByID(role.ID).HasPermission(PermUpdateClient))
	})
}

func TestRealmsStaySeparate(t *testing.T) {
	admins := NewAdminRegistry()
	users := NewUserRegistry()

	// Same numeric ids resolve to different roles per realm.
	assert.Equal(t, "executor", admins.RoleByID(1).Name)
	assert.Equal(t, "user", users.RoleByID(1).Name)
	assert.False(t, users.RoleByID(1).HasPermission(PermCreateClient))
}

func TestRolesListingOrderedByID(t *testing.T) {
	reg := NewAdminRegistry()
	_, err := reg.CreateCustomRole("zeta", "", nil)
	require.NoError(t, err)

	roles := reg.Roles()
	require.Len(t, roles, 4)
	for i := 1; i < len(roles); i++ {
		assert.Less(t, roles[i-1].ID, roles[i].ID)
	}
}
