package service

import (
	"context"

	"custodia/internal/audit"
	"custodia/internal/rbac"
	dErrors "custodia/pkg/domain-errors"
)

// AuditLog reads back recorded audit events.
type AuditLog interface {
	List(ctx context.Context) ([]audit.Event, error)
	ListByActor(ctx context.Context, actorID int) ([]audit.Event, error)
}

// WithAuditLog wires the read side of the audit trail.
func WithAuditLog(log AuditLog) Option {
	return func(s *Service) {
		s.auditLog = log
	}
}

// ListRoles returns every role in the administrator registry.
func (s *Service) ListRoles(ctx context.Context, actorID int) ([]rbac.Role, error) {
	var out []rbac.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAdmin); err != nil {
			return err
		}
		out = s.registry.Roles()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRole returns a role by id.
func (s *Service) GetRole(ctx context.Context, actorID, roleID int) (rbac.Role, error) {
	var role rbac.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAdmin); err != nil {
			return err
		}
		role, err = s.registry.RequireRoleByID(roleID)
		return err
	})
	if err != nil {
		return rbac.EmptyRole(), err
	}
	return role, nil
}

// CreateCustomRole adds a non-system role to the registry.
func (s *Service) CreateCustomRole(ctx context.Context, actorID int, name, description string, permissions []rbac.Permission) (rbac.Role, error) {
	var role rbac.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		role, err = s.registry.CreateCustomRole(name, description, permissions)
		if err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionRoleAssigned, role.Name, "custom role created")
		return nil
	})
	if err != nil {
		return rbac.EmptyRole(), err
	}
	return role, nil
}

// UpdateRolePermissions replaces a custom role's permission set. System roles
// are immutable and refuse modification.
func (s *Service) UpdateRolePermissions(ctx context.Context, actorID, roleID int, permissions []rbac.Permission) (rbac.Role, error) {
	var role rbac.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateAdmin)
		if err != nil {
			return err
		}
		role, err = s.registry.UpdateRolePermissions(roleID, permissions)
		if err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionRoleAssigned, role.Name, "permissions updated")
		return nil
	})
	if err != nil {
		return rbac.EmptyRole(), err
	}
	return role, nil
}

// ListAuditEvents returns the audit trail.
func (s *Service) ListAuditEvents(ctx context.Context, actorID int) ([]audit.Event, error) {
	if err := s.requireAuditAccess(ctx, actorID); err != nil {
		return nil, err
	}
	return s.auditLog.List(ctx)
}

// ListAuditEventsByActor returns the audit trail filtered to one actor.
func (s *Service) ListAuditEventsByActor(ctx context.Context, actorID, subjectAdminID int) ([]audit.Event, error) {
	if err := s.requireAuditAccess(ctx, actorID); err != nil {
		return nil, err
	}
	return s.auditLog.ListByActor(ctx, subjectAdminID)
}

func (s *Service) requireAuditAccess(ctx context.Context, actorID int) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewAuditLog); err != nil {
			return err
		}
		if s.auditLog == nil {
			return dErrors.New(dErrors.CodeOperation, "audit log is not configured")
		}
		return nil
	})
}
