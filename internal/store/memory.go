package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"custodia/internal/identity"
	"custodia/internal/subject"
	"custodia/pkg/platform/sentinel"
)

// adminRow and clientRow are the persisted shapes; keeping plain rows here
// guarantees each load rebuilds fresh aggregate members instead of leaking
// shared pointers across transactional contexts.
type adminRow struct {
	id             int
	name           string
	email          string
	passwordHash   string
	enabled        bool
	roleIDs        []int
	createdClients int
	createdAt      time.Time
}

type clientRow struct {
	id        int
	name      string
	adminID   int
	address   string
	phones    string
	emails    string
	enabled   bool
	createdAt time.Time
}

// InMemory is the in-memory persistence adapter used by tests and
// development wiring. Saves are serialized by a mutex; optimistic version
// checks reject writers whose loaded base version no longer matches the
// persisted one, even when both writers advanced the counter equally.
type InMemory struct {
	mu            sync.Mutex
	hasher        identity.PasswordHasher
	admins        map[string]adminRow
	adminsVersion int
	nextAdminID   int

	clients        map[string]clientRow
	clientsVersion int
	nextClientID   int
}

// NewInMemory constructs an empty in-memory store with the hashing
// capability that loaded identity aggregates will carry.
func NewInMemory(hasher identity.PasswordHasher) *InMemory {
	return &InMemory{
		hasher:       hasher,
		admins:       make(map[string]adminRow),
		clients:      make(map[string]clientRow),
		nextAdminID:  1,
		nextClientID: 1,
	}
}

func (s *InMemory) LoadAdmins(_ context.Context) (*identity.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]*identity.Administrator, 0, len(s.admins))
	for _, row := range s.admins {
		roleIDs := make([]int, len(row.roleIDs))
		copy(roleIDs, row.roleIDs)
		members = append(members, identity.RehydrateAdministrator(
			row.id, row.name, row.email, row.passwordHash, row.enabled,
			roleIDs, row.createdClients, row.createdAt))
	}
	aggregate, err := identity.LoadAggregate(s.hasher, members, s.adminsVersion)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	return aggregate, nil
}

func (s *InMemory) SaveAdmins(_ context.Context, aggregate *identity.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aggregate.Version() == aggregate.BaseVersion() {
		return nil // nothing changed
	}
	if aggregate.BaseVersion() != s.adminsVersion {
		return fmt.Errorf("save admins: loaded at version %d, persisted is %d: %w",
			aggregate.BaseVersion(), s.adminsVersion, sentinel.ErrConflict)
	}

	// Assign storage ids to new members before snapshotting.
	for _, admin := range aggregate.All() {
		if admin.ID() == 0 {
			if err := aggregate.AssignID(admin.Name(), s.nextAdminID); err != nil {
				return fmt.Errorf("save admins: %w", err)
			}
			s.nextAdminID++
		}
	}

	rows := make(map[string]adminRow, aggregate.Count())
	for _, admin := range aggregate.All() {
		rows[admin.Name()] = adminRow{
			id:             admin.ID(),
			name:           admin.Name(),
			email:          admin.Email(),
			passwordHash:   admin.PasswordHash(),
			enabled:        admin.Enabled(),
			roleIDs:        admin.RoleIDs(),
			createdClients: admin.CreatedClients(),
			createdAt:      admin.CreatedAt(),
		}
	}
	s.admins = rows
	s.adminsVersion = aggregate.Version()
	return nil
}

func (s *InMemory) LoadClients(_ context.Context) (*subject.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]*subject.Client, 0, len(s.clients))
	for _, row := range s.clients {
		members = append(members, subject.RehydrateClient(
			row.id, row.name, row.adminID, row.address, row.phones, row.emails,
			row.enabled, row.createdAt))
	}
	aggregate, err := subject.LoadAggregate(members, s.clientsVersion)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return aggregate, nil
}

func (s *InMemory) SaveClients(_ context.Context, aggregate *subject.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aggregate.Version() == aggregate.BaseVersion() {
		return nil
	}
	if aggregate.BaseVersion() != s.clientsVersion {
		return fmt.Errorf("save clients: loaded at version %d, persisted is %d: %w",
			aggregate.BaseVersion(), s.clientsVersion, sentinel.ErrConflict)
	}

	// Inserts get ids here; the side list distinguishes them from updates.
	for _, client := range aggregate.NewClients() {
		if err := aggregate.AssignID(client.Name(), s.nextClientID); err != nil {
			return fmt.Errorf("save clients: %w", err)
		}
		s.nextClientID++
	}

	rows := make(map[string]clientRow, aggregate.Count())
	for _, client := range aggregate.All() {
		rows[client.Name()] = clientRow{
			id:        client.ID(),
			name:      client.Name(),
			adminID:   client.AdminID(),
			address:   client.Address(),
			phones:    client.Phones(),
			emails:    client.Emails(),
			enabled:   client.Enabled(),
			createdAt: client.CreatedAt(),
		}
	}
	s.clients = rows
	s.clientsVersion = aggregate.Version()
	return nil
}

// RunInTx serializes in-memory units of work with a process-wide lock held
// by the caller chain, not here: the memory adapter's individual operations
// already lock, so the runner only provides the callback shape the services
// expect.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
