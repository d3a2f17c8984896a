// Package service hosts the authorization-gated orchestration layer: every
// operation names the acting administrator, resolves the actor inside the
// current unit of work, checks the required permission through the role
// registry, and only then mutates the aggregates.
package service

import (
	"context"
	"log/slog"
	"strconv"

	"custodia/internal/audit"
	"custodia/internal/identity"
	"custodia/internal/platform/metrics"
	"custodia/internal/rbac"
	"custodia/internal/store"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

// AuditPublisher receives domain audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates administrator and client management.
type Service struct {
	store    store.Store
	registry *rbac.Registry

	logger         *slog.Logger
	auditPublisher AuditPublisher
	auditLog       AuditLog
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the persistence port and the administrator
// role registry.
func New(st store.Store, registry *rbac.Registry, opts ...Option) *Service {
	s := &Service{store: st, registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the administrator role registry for read paths.
func (s *Service) Registry() *rbac.Registry { return s.registry }

// requireActor resolves the acting administrator inside the loaded aggregate
// and checks the permission gate. An unknown actor is a not-found error, a
// disabled actor an operation error, and a missing permission a security
// error; the denial is audited before returning.
func (s *Service) requireActor(ctx context.Context, admins *identity.Aggregate, actorID int, permission rbac.Permission) (*identity.Administrator, error) {
	actor := admins.AdminByID(actorID)
	if actor.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "acting admin not found").
			WithSubject(strconv.Itoa(actorID))
	}
	if !actor.Enabled() {
		return nil, dErrors.New(dErrors.CodeOperation, "acting admin is disabled").
			WithSubject(actor.Name())
	}
	if !actor.HasPermission(permission, s.registry) {
		s.denied(ctx, actor, permission)
		return nil, dErrors.Newf(dErrors.CodeSecurity, "admin lacks permission %s", permission).
			WithSubject(actor.Name())
	}
	return actor, nil
}

func (s *Service) denied(ctx context.Context, actor *identity.Administrator, permission rbac.Permission) {
	if s.metrics != nil {
		s.metrics.IncrementPermissionDenial(permission.String())
	}
	s.emitAudit(ctx, actor, audit.ActionPermissionDenied, permission.String(),
		"permission not granted by any assigned role")
}

// emitAudit logs and publishes one audit event for an actor and subject.
func (s *Service) emitAudit(ctx context.Context, actor *identity.Administrator, action audit.Action, subject, reason string) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor_id", actor.ID(),
			"actor", actor.Name(),
			"subject", subject,
			"request_id", requestID,
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:   actor.ID(),
		ActorName: actor.Name(),
		Subject:   subject,
		Action:    string(action),
		Reason:    reason,
		RequestID: requestID,
	})
}
