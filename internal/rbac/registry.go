package rbac

import (
	"sort"
	"strconv"
	"sync"
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Registry maps role id → Role for one realm. It is created once per
// authorization context, pre-seeded with that realm's system roles, and
// mutated only by adding custom (non-system) roles. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	byID map[int]Role
}

// System role ids for the administrator realm.
const (
	RoleExecutor   = 1
	RoleManager    = 2
	RoleSupervisor = 3
)

// NewAdminRegistry builds the administrator-realm registry seeded with the
// three system roles.
func NewAdminRegistry() *Registry {
	now := time.Now().UTC()
	r := &Registry{byID: make(map[int]Role)}
	seed := []Role{
		NewRole(RoleExecutor, "executor", "Can execute predefined tasks",
			[]Permission{PermExecuteTask1, PermExecuteTask2, PermExecuteTask3}, true, now),
		NewRole(RoleManager, "manager", "Can manage all client operations",
			[]Permission{PermCreateClient, PermViewClient, PermUpdateClient, PermDeleteClient, PermEnableClient}, true, now),
		NewRole(RoleSupervisor, "supervisor", "Can manage all admin operations",
			[]Permission{PermCreateAdmin, PermViewAdmin, PermUpdateAdmin, PermDisableAdmin, PermDeleteAdmin, PermViewAuditLog}, true, now),
	}
	for _, role := range seed {
		r.byID[role.ID] = role
	}
	return r
}

// NewUserRegistry builds the end-user-realm registry. The two realms never
// share a registry instance, keeping their vocabularies apart.
func NewUserRegistry() *Registry {
	now := time.Now().UTC()
	r := &Registry{byID: make(map[int]Role)}
	seed := []Role{
		NewRole(1, "user", "Ordinary user",
			[]Permission{UserPermCreateTicket, UserPermViewOwnTicket, UserPermUpdateOwnTicket, UserPermDeleteOwnTicket}, true, now),
		NewRole(2, "superuser", "Can act on any ticket",
			[]Permission{UserPermCreateTicket, UserPermViewOwnTicket, UserPermViewAnyTicket, UserPermDeleteAnyTicket}, true, now),
	}
	for _, role := range seed {
		r.byID[role.ID] = role
	}
	return r
}

// Add registers a role, rejecting duplicate ids.
func (r *Registry) Add(role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[role.ID]; ok {
		return dErrors.New(dErrors.CodeAlreadyExists, "role id already registered").
			WithSubject(strconv.Itoa(role.ID))
	}
	r.byID[role.ID] = role
	return nil
}

// RoleByID never fails; it returns EmptyRole on a miss.
func (r *Registry) RoleByID(id int) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if role, ok := r.byID[id]; ok {
		return role
	}
	return EmptyRole()
}

// RequireRoleByID fails with a not-found error on a miss. Use it when role
// existence is a precondition for a mutation, e.g. assigning a role.
func (r *Registry) RequireRoleByID(id int) (Role, error) {
	r.mu.RLock()
	role, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return EmptyRole(), dErrors.New(dErrors.CodeNotFound, "role not found").
			WithSubject(strconv.Itoa(id))
	}
	return role, nil
}

// RoleByName returns EmptyRole on a miss. Name lookups scan the registry;
// it is small and rarely searched by name.
func (r *Registry) RoleByName(name string) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roleByNameLocked(name)
}

func (r *Registry) roleByNameLocked(name string) Role {
	for _, role := range r.byID {
		if role.Name == name {
			return role
		}
	}
	return EmptyRole()
}

// RoleExistsByID reports whether a role with the id is registered.
func (r *Registry) RoleExistsByID(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// RoleExistsByName reports whether a role with the name is registered.
func (r *Registry) RoleExistsByName(name string) bool {
	return !r.RoleByName(name).IsEmpty()
}

// CreateCustomRole registers a new non-system role under the next integer id.
func (r *Registry) CreateCustomRole(name, description string, permissions []Permission) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roleByNameLocked(name).IsEmpty() {
		return EmptyRole(), dErrors.New(dErrors.CodeAlreadyExists, "role name already registered").
			WithSubject(name)
	}
	role := NewRole(r.nextID(), name, description, permissions, false, time.Now().UTC())
	r.byID[role.ID] = role
	return role, nil
}

// UpdateRolePermissions replaces a custom role's permission set by
// installing a new Role value under the same id. System roles reject
// modification with a security error.
func (r *Registry) UpdateRolePermissions(id int, permissions []Permission) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return EmptyRole(), dErrors.New(dErrors.CodeNotFound, "role not found").
			WithSubject(strconv.Itoa(id))
	}
	if role.System {
		return EmptyRole(), dErrors.New(dErrors.CodeSecurity, "system roles cannot be modified").
			WithSubject(role.Name)
	}
	updated := NewRole(role.ID, role.Name, role.Description, permissions, false, role.CreatedAt)
	r.byID[id] = updated
	return updated, nil
}

// Roles lists all registered roles ordered by id.
func (r *Registry) Roles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Role, 0, len(r.byID))
	for _, role := range r.byID {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) nextID() int {
	next := 1
	for id := range r.byID {
		if id >= next {
			next = id + 1
		}
	}
	return next
}
