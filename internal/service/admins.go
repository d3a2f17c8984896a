package service

import (
	"context"
	"fmt"
	"strings"

	"custodia/internal/audit"
	"custodia/internal/identity"
	"custodia/internal/rbac"
	dErrors "custodia/pkg/domain-errors"
)

// CreateAdmin registers a new administrator. Every requested role must exist
// in the registry before the member is added.
func (s *Service) CreateAdmin(ctx context.Context, actorID int, name, email, password string, roleIDs []int) (*identity.Administrator, error) {
	var created *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermCreateAdmin)
		if err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := s.registry.RequireRoleByID(roleID); err != nil {
				return err
			}
		}
		created, err = admins.CreateAdmin(0, name, email, password, true, roleIDs)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionAdminCreated, created.Name(), "")
		if s.metrics != nil {
			s.metrics.IncrementAdminsCreated()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetAdmin returns an administrator by id.
func (s *Service) GetAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAdmin); err != nil {
			return err
		}
		admin, err = admins.RequireAdminByID(adminID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// GetAdminByName returns an administrator by unique name.
func (s *Service) GetAdminByName(ctx context.Context, actorID int, name string) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAdmin); err != nil {
			return err
		}
		admin, err = admins.RequireAdminByName(name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// ListAdmins returns all administrators ordered by name.
func (s *Service) ListAdmins(ctx context.Context, actorID int) ([]*identity.Administrator, error) {
	var out []*identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAdmin); err != nil {
			return err
		}
		out = admins.All()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeAdminEmail updates an administrator's email address.
func (s *Service) ChangeAdminEmail(ctx context.Context, actorID, adminID int, email string) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		admin, err = admins.ChangeAdminEmail(adminID, email)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionAdminUpdated, admin.Name(), "email changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// ChangeAdminPassword re-validates and re-hashes the password.
func (s *Service) ChangeAdminPassword(ctx context.Context, actorID, adminID int, password string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		admin, err := admins.ChangeAdminPassword(adminID, password)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionAdminUpdated, admin.Name(), "password changed")
		return nil
	})
}

// EnableAdmin sets the enabled flag on a target administrator.
func (s *Service) EnableAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error) {
	return s.setAdminStatus(ctx, actorID, adminID, true)
}

// DisableAdmin clears the enabled flag. Administrators cannot disable
// themselves; the attempt is refused before any state changes.
func (s *Service) DisableAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error) {
	return s.setAdminStatus(ctx, actorID, adminID, false)
}

func (s *Service) setAdminStatus(ctx context.Context, actorID, adminID int, enabled bool) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermDisableAdmin)
		if err != nil {
			return err
		}
		if !enabled && actorID == adminID {
			s.emitAudit(ctx, actor, audit.ActionPermissionDenied, actor.Name(), "self-disable refused")
			return dErrors.New(dErrors.CodeSecurity, "admins cannot disable themselves").
				WithSubject(actor.Name())
		}
		admin, err = admins.SetAdminStatus(adminID, enabled)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		action := audit.ActionAdminEnabled
		if !enabled {
			action = audit.ActionAdminDisabled
		}
		s.emitAudit(ctx, actor, action, admin.Name(), "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// DeleteAdmin removes an administrator. Self-deletion is refused, and an
// administrator that still owns clients cannot be deleted; the error names up
// to three of the owned clients.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, adminID int) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermDeleteAdmin)
		if err != nil {
			return err
		}
		if actorID == adminID {
			s.emitAudit(ctx, actor, audit.ActionPermissionDenied, actor.Name(), "self-delete refused")
			return dErrors.New(dErrors.CodeSecurity, "admins cannot delete themselves").
				WithSubject(actor.Name())
		}
		target, err := admins.RequireAdminByID(adminID)
		if err != nil {
			return err
		}
		if target.CreatedClients() > 0 {
			return s.ownedClientsError(ctx, target)
		}
		if err := admins.RemoveAdminByID(adminID); err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionAdminDeleted, target.Name(), "")
		return nil
	})
}

// ownedClientsError builds the refusal for deleting an admin that still owns
// clients, naming at most three of them.
func (s *Service) ownedClientsError(ctx context.Context, target *identity.Administrator) error {
	clients, err := s.store.LoadClients(ctx)
	if err != nil {
		return err
	}
	owned := clients.ClientsByAdmin(target.ID())
	names := make([]string, 0, 3)
	for _, client := range owned {
		if len(names) == 3 {
			break
		}
		names = append(names, client.Name())
	}
	detail := strings.Join(names, ", ")
	if extra := target.CreatedClients() - len(names); extra > 0 {
		detail = fmt.Sprintf("%s and %d more", detail, extra)
	}
	return dErrors.Newf(dErrors.CodeOperation, "admin still owns clients: %s", detail).
		WithSubject(target.Name())
}

// AssignRole attaches a role to an administrator. The role must exist in the
// registry.
func (s *Service) AssignRole(ctx context.Context, actorID, adminID, roleID int) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		role, err := s.registry.RequireRoleByID(roleID)
		if err != nil {
			return err
		}
		admin, err = admins.AssignRole(adminID, roleID)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionRoleAssigned, admin.Name(), "role "+role.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// RemoveRole detaches a role from an administrator. The role must exist in
// the registry even when the administrator does not hold it.
func (s *Service) RemoveRole(ctx context.Context, actorID, adminID, roleID int) (*identity.Administrator, error) {
	var admin *identity.Administrator
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		role, err := s.registry.RequireRoleByID(roleID)
		if err != nil {
			return err
		}
		admin, err = admins.RemoveRole(adminID, roleID)
		if err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionRoleRemoved, admin.Name(), "role "+role.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// saveAdmins persists the aggregate and translates optimistic-lock conflicts
// into concurrency errors.
func (s *Service) saveAdmins(ctx context.Context, admins *identity.Aggregate) error {
	if err := s.store.SaveAdmins(ctx, admins); err != nil {
		return s.translateSaveErr(err, "admins")
	}
	return nil
}
