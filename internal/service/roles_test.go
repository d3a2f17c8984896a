package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"custodia/internal/rbac"
	"custodia/internal/store"
	dErrors "custodia/pkg/domain-errors"
)

type RoleServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context

	supervisorID int
	executorID   int
}

func TestRoleServiceSuite(t *testing.T) {
	suite.Run(t, new(RoleServiceSuite))
}

func (s *RoleServiceSuite) SetupTest() {
	s.ctx = context.Background()
	st := store.NewInMemory(plainHasher{})
	s.svc = New(st, rbac.NewAdminRegistry())

	admins, err := st.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "sam-supervisor", "sam@corp.test", "Secret123!", true, []int{rbac.RoleSupervisor})
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "eve-executor", "eve@corp.test", "Secret123!", true, []int{rbac.RoleExecutor})
	s.Require().NoError(err)
	s.Require().NoError(st.SaveAdmins(s.ctx, admins))

	seeded, err := st.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	s.supervisorID = seeded.AdminByName("sam-supervisor").ID()
	s.executorID = seeded.AdminByName("eve-executor").ID()
}

func (s *RoleServiceSuite) TestListRoles() {
	roles, err := s.svc.ListRoles(s.ctx, s.supervisorID)
	s.Require().NoError(err)
	s.Require().Len(roles, 3)
	s.Equal("executor", roles[0].Name)
	s.Equal("manager", roles[1].Name)
	s.Equal("supervisor", roles[2].Name)
}

func (s *RoleServiceSuite) TestCreateCustomRoleGrantsPermissions() {
	role, err := s.svc.CreateCustomRole(s.ctx, s.supervisorID, "auditor", "Read-only audit access",
		[]rbac.Permission{rbac.PermViewAuditLog, rbac.PermViewAdmin})
	s.Require().NoError(err)
	s.Equal(4, role.ID, "custom ids continue after the system roles")
	s.False(role.System)

	_, err = s.svc.AssignRole(s.ctx, s.supervisorID, s.executorID, role.ID)
	s.Require().NoError(err)

	// The custom role now grants the executor admin visibility.
	_, err = s.svc.ListAdmins(s.ctx, s.executorID)
	s.NoError(err)
}

func (s *RoleServiceSuite) TestCreateCustomRoleDuplicateName() {
	_, err := s.svc.CreateCustomRole(s.ctx, s.supervisorID, "manager", "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
}

func (s *RoleServiceSuite) TestSystemRoleImmutable() {
	_, err := s.svc.UpdateRolePermissions(s.ctx, s.supervisorID, rbac.RoleManager,
		[]rbac.Permission{rbac.PermViewClient})
	s.True(dErrors.HasCode(err, dErrors.CodeSecurity))
}

func (s *RoleServiceSuite) TestUpdateCustomRolePermissions() {
	role, err := s.svc.CreateCustomRole(s.ctx, s.supervisorID, "auditor", "",
		[]rbac.Permission{rbac.PermViewAuditLog})
	s.Require().NoError(err)

	updated, err := s.svc.UpdateRolePermissions(s.ctx, s.supervisorID, role.ID,
		[]rbac.Permission{rbac.PermViewAuditLog, rbac.PermExportData})
	s.Require().NoError(err)
	s.True(updated.HasPermission(rbac.PermExportData))
}

func (s *RoleServiceSuite) TestRoleOpsDeniedWithoutPermission() {
	_, err := s.svc.CreateCustomRole(s.ctx, s.executorID, "rogue", "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeSecurity))

	_, err = s.svc.ListRoles(s.ctx, s.executorID)
	s.True(dErrors.HasCode(err, dErrors.CodeSecurity))
}
