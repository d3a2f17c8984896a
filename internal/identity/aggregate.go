package identity

import (
	"sort"
	"strconv"
	"strings"
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Aggregate is the consistency boundary for administrators: a name-keyed map
// plus a version counter incremented exactly once on every structural change
// (add, update, remove, status or role change). Failed operations leave both
// the members and the version untouched.
//
// One aggregate instance belongs to one transactional context; the
// persistence port hands out a fresh copy per load and arbitrates
// conflicting saves via the version counter.
type Aggregate struct {
	hasher  PasswordHasher
	byName  map[string]*Administrator
	version int
	base    int
}

// NewAggregate constructs an empty aggregate with the hashing capability
// attached.
func NewAggregate(hasher PasswordHasher) *Aggregate {
	return &Aggregate{hasher: hasher, byName: make(map[string]*Administrator)}
}

// LoadAggregate rehydrates an aggregate from persisted members, enforcing
// name and id uniqueness, and pins the version to the persisted value.
func LoadAggregate(hasher PasswordHasher, admins []*Administrator, version int) (*Aggregate, error) {
	a := NewAggregate(hasher)
	for _, admin := range admins {
		if err := a.addMember(admin); err != nil {
			return nil, err
		}
	}
	a.version = version
	a.base = version
	return a, nil
}

// Version returns the current aggregate version.
func (a *Aggregate) Version() int { return a.version }

// BaseVersion returns the version the aggregate was loaded at. The
// persistence port compares it against the persisted version at save time, so
// a concurrent writer that advanced the counter by the same amount is still
// detected as a conflict.
func (a *Aggregate) BaseVersion() int { return a.base }

// CreateAdmin validates, hashes, and inserts a new member, incrementing the
// version exactly once. id 0 means the persistence port will assign one at
// save time.
func (a *Aggregate) CreateAdmin(id int, name, email, password string, enabled bool, roleIDs []int) (*Administrator, error) {
	admin, err := newAdministrator(id, name, email, password, enabled, roleIDs, a.hasher, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := a.addMember(admin); err != nil {
		return nil, err
	}
	a.version++
	return admin, nil
}

// addMember enforces uniqueness without touching the version; callers decide
// whether the insertion is a structural change (create) or a rehydration (load).
func (a *Aggregate) addMember(admin *Administrator) error {
	if _, ok := a.byName[admin.name]; ok {
		return dErrors.New(dErrors.CodeAlreadyExists, "admin name already exists").WithSubject(admin.name)
	}
	if admin.id != 0 {
		for _, existing := range a.byName {
			if existing.id == admin.id {
				return dErrors.New(dErrors.CodeAlreadyExists, "admin id already exists").
					WithSubject(strconv.Itoa(admin.id))
			}
		}
	}
	a.byName[admin.name] = admin
	return nil
}

// AdminByID returns the null object when the id is unknown; it never fails.
// Id 0 marks a not-yet-persisted member and never resolves.
func (a *Aggregate) AdminByID(id int) *Administrator {
	if id == 0 {
		return EmptyAdministrator()
	}
	for _, admin := range a.byName {
		if admin.id == id {
			return admin
		}
	}
	return EmptyAdministrator()
}

// AdminByName returns the null object when the name is unknown.
func (a *Aggregate) AdminByName(name string) *Administrator {
	if admin, ok := a.byName[strings.TrimSpace(name)]; ok {
		return admin
	}
	return EmptyAdministrator()
}

// RequireAdminByID fails with a not-found error; use it on presence-required paths.
func (a *Aggregate) RequireAdminByID(id int) (*Administrator, error) {
	admin := a.AdminByID(id)
	if admin.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "admin not found").WithSubject(strconv.Itoa(id))
	}
	return admin, nil
}

// RequireAdminByName fails with a not-found error; use it on presence-required paths.
func (a *Aggregate) RequireAdminByName(name string) (*Administrator, error) {
	admin := a.AdminByName(name)
	if admin.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "admin not found").WithSubject(name)
	}
	return admin, nil
}

// AdminExists reports presence by unique name.
func (a *Aggregate) AdminExists(name string) bool {
	_, ok := a.byName[strings.TrimSpace(name)]
	return ok
}

// ChangeAdminEmail re-validates the new address with creation rules.
func (a *Aggregate) ChangeAdminEmail(id int, newEmail string) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	if !emailShape.MatchString(newEmail) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email format").WithSubject(admin.name)
	}
	admin.email = newEmail
	a.version++
	return admin, nil
}

// ChangeAdminPassword re-validates the new password with creation rules and
// stores only the resulting hash.
func (a *Aggregate) ChangeAdminPassword(id int, newPassword string) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	if len(newPassword) < MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", MinPasswordLength).
			WithSubject(admin.name)
	}
	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "password hashing failed").WithSubject(admin.name)
	}
	admin.passwordHash = hash
	a.version++
	return admin, nil
}

// SetAdminStatus sets the enabled flag.
func (a *Aggregate) SetAdminStatus(id int, enabled bool) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	admin.enabled = enabled
	a.version++
	return admin, nil
}

// ToggleAdminStatus flips the enabled flag.
func (a *Aggregate) ToggleAdminStatus(id int) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	admin.enabled = !admin.enabled
	a.version++
	return admin, nil
}

// AssignRole adds a role foreign key to the member. Role existence is the
// caller's concern (domain services use the registry's require lookup).
func (a *Aggregate) AssignRole(id, roleID int) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	admin.roleIDs[roleID] = struct{}{}
	a.version++
	return admin, nil
}

// RemoveRole drops a role foreign key from the member.
func (a *Aggregate) RemoveRole(id, roleID int) (*Administrator, error) {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return nil, err
	}
	delete(admin.roleIDs, roleID)
	a.version++
	return admin, nil
}

// IncrementCreatedClients records that the member now owns one more client.
func (a *Aggregate) IncrementCreatedClients(id int) error {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return err
	}
	admin.createdClients++
	a.version++
	return nil
}

// DecrementCreatedClients records that one of the member's clients was
// removed. An underflow means the ownership counts drifted; the failure
// leaves the aggregate unchanged so the surrounding unit of work rolls back.
func (a *Aggregate) DecrementCreatedClients(id int) error {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return err
	}
	if admin.createdClients == 0 {
		return dErrors.New(dErrors.CodeOperation, "admin owns no clients").WithSubject(admin.name)
	}
	admin.createdClients--
	a.version++
	return nil
}

// RemoveAdminByID removes a member. An administrator that still owns clients
// cannot be deleted; the failure leaves the aggregate unchanged.
func (a *Aggregate) RemoveAdminByID(id int) error {
	admin, err := a.RequireAdminByID(id)
	if err != nil {
		return err
	}
	if admin.createdClients != 0 {
		return dErrors.Newf(dErrors.CodeOperation, "admin still owns %d clients", admin.createdClients).
			WithSubject(admin.name)
	}
	delete(a.byName, admin.name)
	a.version++
	return nil
}

// AssignID gives a newly persisted member its storage-assigned id. Assignment
// happens exactly once; the persistence port calls this at save time, so it
// is not a structural change and does not bump the version.
func (a *Aggregate) AssignID(name string, id int) error {
	admin, err := a.RequireAdminByName(name)
	if err != nil {
		return err
	}
	if admin.id != 0 {
		return dErrors.New(dErrors.CodeOperation, "admin id already assigned").WithSubject(admin.name)
	}
	for _, existing := range a.byName {
		if existing.id == id {
			return dErrors.New(dErrors.CodeAlreadyExists, "admin id already exists").
				WithSubject(strconv.Itoa(id))
		}
	}
	admin.id = id
	return nil
}

// All lists members ordered by name for deterministic iteration.
func (a *Aggregate) All() []*Administrator {
	out := make([]*Administrator, 0, len(a.byName))
	for _, admin := range a.byName {
		out = append(out, admin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Enabled lists members with the enabled flag set.
func (a *Aggregate) Enabled() []*Administrator {
	var out []*Administrator
	for _, admin := range a.All() {
		if admin.enabled {
			out = append(out, admin)
		}
	}
	return out
}

// Disabled lists members with the enabled flag cleared.
func (a *Aggregate) Disabled() []*Administrator {
	var out []*Administrator
	for _, admin := range a.All() {
		if !admin.enabled {
			out = append(out, admin)
		}
	}
	return out
}

// Count returns the number of members.
func (a *Aggregate) Count() int { return len(a.byName) }
