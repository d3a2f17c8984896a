// Package identity owns the authoritative set of administrator records.
// The Aggregate is the sole mutation boundary: every change goes through an
// aggregate method so the version counter and invariants stay authoritative.
package identity

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"custodia/internal/rbac"
	dErrors "custodia/pkg/domain-errors"
)

// PasswordHasher is the opaque hashing capability supplied by the embedding
// application. The aggregate stores and compares only opaque hash strings;
// the algorithm and its parameters are entirely the collaborator's concern.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// Administrator is a member of the identity aggregate.
//
// Invariants:
//   - Name is non-empty after trimming and unique within the aggregate
//     (it doubles as the login and as the equality key)
//   - Email matches a basic address shape
//   - ID 0 means unassigned/new; once non-zero it is unique and never reassigned
//   - RoleIDs are foreign keys into the rbac.Registry, never embedded roles
//
// Fields are unexported: all mutation goes through Aggregate methods.
type Administrator struct {
	id             int
	name           string
	email          string
	passwordHash   string
	enabled        bool
	roleIDs        map[int]struct{}
	createdClients int
	createdAt      time.Time
	empty          bool
}

// MinPasswordLength is the policy applied before hashing.
const MinPasswordLength = 8

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// newAdministrator validates and builds a member. Validation happens before
// hashing so a weak password never reaches the hasher.
func newAdministrator(id int, name, email, password string, enabled bool, roleIDs []int, hasher PasswordHasher, now time.Time) (*Administrator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "admin name cannot be empty")
	}
	if !emailShape.MatchString(email) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email format").WithSubject(name)
	}
	if len(password) < MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", MinPasswordLength).WithSubject(name)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "password hashing failed").WithSubject(name)
	}
	roles := make(map[int]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		roles[rid] = struct{}{}
	}
	return &Administrator{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: hash,
		enabled:      enabled,
		roleIDs:      roles,
		createdAt:    now,
	}, nil
}

// RehydrateAdministrator rebuilds a member from persisted state without
// re-validating; the persistence port is trusted to return what was saved.
func RehydrateAdministrator(id int, name, email, passwordHash string, enabled bool, roleIDs []int, createdClients int, createdAt time.Time) *Administrator {
	roles := make(map[int]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		roles[rid] = struct{}{}
	}
	return &Administrator{
		id:             id,
		name:           name,
		email:          email,
		passwordHash:   passwordHash,
		enabled:        enabled,
		roleIDs:        roles,
		createdClients: createdClients,
		createdAt:      createdAt,
	}
}

// EmptyAdministrator is the null object returned by presence-optional
// lookups. It is never equal to anything, including another empty value.
func EmptyAdministrator() *Administrator {
	return &Administrator{empty: true, roleIDs: map[int]struct{}{}}
}

func (a *Administrator) IsEmpty() bool { return a == nil || a.empty }

// Equal implements equality by name: two administrators are the same member
// iff they share a name. Empty administrators equal nothing.
func (a *Administrator) Equal(other *Administrator) bool {
	if a.IsEmpty() || other.IsEmpty() {
		return false
	}
	return a.name == other.name
}

func (a *Administrator) ID() int              { return a.id }
func (a *Administrator) Name() string         { return a.name }
func (a *Administrator) Email() string        { return a.email }
func (a *Administrator) Enabled() bool        { return a.enabled }
func (a *Administrator) CreatedClients() int  { return a.createdClients }
func (a *Administrator) CreatedAt() time.Time { return a.createdAt }

// PasswordHash exposes the opaque hash for the persistence port.
func (a *Administrator) PasswordHash() string { return a.passwordHash }

// RoleIDs returns the member's role foreign keys as a sorted copy.
func (a *Administrator) RoleIDs() []int {
	out := make([]int, 0, len(a.roleIDs))
	for rid := range a.roleIDs {
		out = append(out, rid)
	}
	sort.Ints(out)
	return out
}

// HasRole reports direct membership of a role id.
func (a *Administrator) HasRole(roleID int) bool {
	_, ok := a.roleIDs[roleID]
	return ok
}

// HasPermission resolves permissions at check time: role ids → registry
// lookup → union. A disabled or empty administrator holds no permissions.
func (a *Administrator) HasPermission(p rbac.Permission, registry *rbac.Registry) bool {
	if a.IsEmpty() || !a.enabled {
		return false
	}
	for rid := range a.roleIDs {
		if registry.RoleByID(rid).HasPermission(p) {
			return true
		}
	}
	return false
}

// VerifyPassword checks a plaintext against the stored opaque hash using the
// supplied capability.
func (a *Administrator) VerifyPassword(hasher PasswordHasher, plaintext string) bool {
	if a.IsEmpty() {
		return false
	}
	return hasher.Verify(a.passwordHash, plaintext)
}
