// Package store defines the persistence port consumed by the domain
// services: load-aggregate / save-aggregate contracts wrapped in an atomic
// unit-of-work boundary. The core only maintains aggregate version counters;
// conflicting concurrent saves are detected here and reported as
// concurrency errors, never manufactured by the aggregates themselves.
package store

import (
	"context"

	"custodia/internal/identity"
	"custodia/internal/subject"
)

// IdentityStore loads and saves the administrator aggregate. Each load
// produces a fresh in-memory copy; no aggregate instance is shared across
// transactional contexts.
type IdentityStore interface {
	LoadAdmins(ctx context.Context) (*identity.Aggregate, error)
	// SaveAdmins persists the aggregate atomically, assigning ids to new
	// members. A save whose loaded base version no longer matches the
	// persisted version fails with sentinel.ErrConflict; an unchanged
	// aggregate saves as a no-op.
	SaveAdmins(ctx context.Context, aggregate *identity.Aggregate) error
}

// SubjectStore loads and saves the client aggregate under the same contract.
type SubjectStore interface {
	LoadClients(ctx context.Context) (*subject.Aggregate, error)
	SaveClients(ctx context.Context, aggregate *subject.Aggregate) error
}

// TxRunner executes fn inside one atomic unit of work. The embedding
// application begins/commits/rolls back around a domain service call; any
// error from fn rolls the unit back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles both aggregate stores with the unit-of-work boundary.
type Store interface {
	IdentityStore
	SubjectStore
	TxRunner
}
