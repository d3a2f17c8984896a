package rbac

import (
	"sort"
	"time"
)

// Role is an immutable named bundle of permissions.
//
// Invariants:
//   - ID is stable; "updating" a role produces a new Role under the same id
//   - Permissions never change after construction
//   - System roles reject modification and deletion (registry enforces this)
//
// The zero-id role is the EmptyRole null object: lookups that miss return it
// instead of an error or nil, and it grants nothing.
type Role struct {
	ID          int
	Name        string
	Description string
	System      bool
	CreatedAt   time.Time

	permissions map[Permission]struct{}
}

// NewRole constructs an immutable role. The permission slice is copied.
func NewRole(id int, name, description string, permissions []Permission, system bool, now time.Time) Role {
	set := make(map[Permission]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Role{
		ID:          id,
		Name:        name,
		Description: description,
		System:      system,
		CreatedAt:   now,
		permissions: set,
	}
}

// EmptyRole is the null-object result of any failed role lookup. Callers
// never branch on "role is missing"; they get a role that grants nothing.
func EmptyRole() Role {
	return Role{permissions: map[Permission]struct{}{}}
}

// IsEmpty reports whether the role is the null object.
func (r Role) IsEmpty() bool { return r.ID == 0 }

// HasPermission is pure set membership. Always false on EmptyRole.
func (r Role) HasPermission(p Permission) bool {
	_, ok := r.permissions[p]
	return ok
}

// Permissions returns the role's permissions as a sorted copy.
func (r Role) Permissions() []Permission {
	out := make([]Permission, 0, len(r.permissions))
	for p := range r.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanManageClients reports whether the role grants any client operation.
func (r Role) CanManageClients() bool {
	for _, p := range clientPermissions {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}

// CanManageAdmins reports whether the role grants any admin operation.
func (r Role) CanManageAdmins() bool {
	for _, p := range adminPermissions {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}
