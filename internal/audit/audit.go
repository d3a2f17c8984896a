// Package audit captures key administrative actions. Events are
// transport-agnostic so stores and sinks can fan out; the VIEW_AUDIT_LOG
// permission gates read access at the service layer.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies per category.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// admin and client lifecycle changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers permission denials and self-targeting
	// violations, feeding security monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine reads and status flips; can be
	// sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic after a successful (or denied) action.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the requesting administrator.
	ActorID   int
	ActorName string
	// Subject identifies the acted-upon entity (admin name, client name, role id).
	Subject   string
	Action    string
	Reason    string
	RequestID string
}

type Action string

const (
	ActionAdminCreated     Action = "admin_created"
	ActionAdminUpdated     Action = "admin_updated"
	ActionAdminEnabled     Action = "admin_enabled"
	ActionAdminDisabled    Action = "admin_disabled"
	ActionAdminDeleted     Action = "admin_deleted"
	ActionRoleAssigned     Action = "role_assigned"
	ActionRoleRemoved      Action = "role_removed"
	ActionClientCreated    Action = "client_created"
	ActionClientUpdated    Action = "client_updated"
	ActionClientEnabled    Action = "client_enabled"
	ActionClientDisabled   Action = "client_disabled"
	ActionClientDeleted    Action = "client_deleted"
	ActionOwnerTransferred Action = "client_ownership_transferred"
	ActionPermissionDenied Action = "permission_denied"
)

// actionCategories maps each action to its retention category.
var actionCategories = map[Action]EventCategory{
	ActionAdminCreated:     CategoryCompliance,
	ActionAdminUpdated:     CategoryCompliance,
	ActionAdminEnabled:     CategoryOperations,
	ActionAdminDisabled:    CategoryCompliance,
	ActionAdminDeleted:     CategoryCompliance,
	ActionRoleAssigned:     CategoryCompliance,
	ActionRoleRemoved:      CategoryCompliance,
	ActionClientCreated:    CategoryCompliance,
	ActionClientUpdated:    CategoryOperations,
	ActionClientEnabled:    CategoryOperations,
	ActionClientDisabled:   CategoryOperations,
	ActionClientDeleted:    CategoryCompliance,
	ActionOwnerTransferred: CategoryCompliance,
	ActionPermissionDenied: CategorySecurity,
}

// CategoryOf returns the retention category for an action, defaulting to
// operations for unknown actions.
func CategoryOf(action Action) EventCategory {
	if cat, ok := actionCategories[action]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	ListByActor(ctx context.Context, actorID int) ([]Event, error)
}

// InMemoryStore keeps events in memory for tests and development wiring.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.ActorID == actorID {
			out = append(out, event)
		}
	}
	return out, nil
}
