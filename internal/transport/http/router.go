// Package httptransport is the thin HTTP layer over the domain services. It
// decodes requests, resolves the acting administrator from the bearer token,
// and translates coded domain errors into JSON responses.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/audit"
	"custodia/internal/identity"
	"custodia/internal/platform/metrics"
	"custodia/internal/rbac"
	"custodia/internal/subject"
)

type AdminService interface {
	CreateAdmin(ctx context.Context, actorID int, name, email, password string, roleIDs []int) (*identity.Administrator, error)
	GetAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error)
	ListAdmins(ctx context.Context, actorID int) ([]*identity.Administrator, error)
	ChangeAdminEmail(ctx context.Context, actorID, adminID int, email string) (*identity.Administrator, error)
	ChangeAdminPassword(ctx context.Context, actorID, adminID int, password string) error
	EnableAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error)
	DisableAdmin(ctx context.Context, actorID, adminID int) (*identity.Administrator, error)
	DeleteAdmin(ctx context.Context, actorID, adminID int) error
	AssignRole(ctx context.Context, actorID, adminID, roleID int) (*identity.Administrator, error)
	RemoveRole(ctx context.Context, actorID, adminID, roleID int) (*identity.Administrator, error)
}

type ClientService interface {
	CreateClient(ctx context.Context, actorID int, name, address, phones, emails string) (*subject.Client, error)
	GetClient(ctx context.Context, actorID, clientID int) (*subject.Client, error)
	ListClients(ctx context.Context, actorID int) ([]*subject.Client, error)
	ClientsCreatedBy(ctx context.Context, actorID, adminID int) ([]*subject.Client, error)
	UpdateClientAddress(ctx context.Context, actorID, clientID int, address string) (*subject.Client, error)
	UpdateClientContact(ctx context.Context, actorID, clientID int, emails, phones *string) (*subject.Client, error)
	EnableClient(ctx context.Context, actorID, clientID int) (*subject.Client, error)
	DisableClient(ctx context.Context, actorID, clientID int) (*subject.Client, error)
	DeleteClient(ctx context.Context, actorID, clientID int) error
	TransferClientOwnership(ctx context.Context, actorID, clientID, newAdminID int) (*subject.Client, error)
}

type RoleService interface {
	ListRoles(ctx context.Context, actorID int) ([]rbac.Role, error)
	GetRole(ctx context.Context, actorID, roleID int) (rbac.Role, error)
	CreateCustomRole(ctx context.Context, actorID int, name, description string, permissions []rbac.Permission) (rbac.Role, error)
	UpdateRolePermissions(ctx context.Context, actorID, roleID int, permissions []rbac.Permission) (rbac.Role, error)
}

type AuditTrail interface {
	ListAuditEvents(ctx context.Context, actorID int) ([]audit.Event, error)
	ListAuditEventsByActor(ctx context.Context, actorID, subjectAdminID int) ([]audit.Event, error)
}

type AuthService interface {
	Login(ctx context.Context, name, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// Handler bundles the services behind the HTTP endpoints.
type Handler struct {
	logger        *slog.Logger
	admins        AdminService
	clients       ClientService
	roles         RoleService
	auditTrail    AuditTrail
	auth          AuthService
	authenticator Authenticator
	metrics       *metrics.Metrics
}

func NewHandler(
	logger *slog.Logger,
	admins AdminService,
	clients ClientService,
	roles RoleService,
	auditTrail AuditTrail,
	auth AuthService,
	authenticator Authenticator,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:        logger,
		admins:        admins,
		clients:       clients,
		roles:         roles,
		auditTrail:    auditTrail,
		auth:          auth,
		authenticator: authenticator,
		metrics:       m,
	}
}

// NewRouter wires all endpoints. Login, health and metrics are public; every
// other route requires a valid bearer token.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(latency(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(h.authenticator, h.logger))

		r.Post("/auth/logout", h.handleLogout)

		r.Route("/admins", func(r chi.Router) {
			r.Post("/", h.handleCreateAdmin)
			r.Get("/", h.handleListAdmins)
			r.Get("/{adminID}", h.handleGetAdmin)
			r.Put("/{adminID}/email", h.handleChangeAdminEmail)
			r.Put("/{adminID}/password", h.handleChangeAdminPassword)
			r.Post("/{adminID}/enable", h.handleEnableAdmin)
			r.Post("/{adminID}/disable", h.handleDisableAdmin)
			r.Delete("/{adminID}", h.handleDeleteAdmin)
			r.Post("/{adminID}/roles/{roleID}", h.handleAssignRole)
			r.Delete("/{adminID}/roles/{roleID}", h.handleRemoveRole)
			r.Get("/{adminID}/clients", h.handleAdminClients)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.handleCreateClient)
			r.Get("/", h.handleListClients)
			r.Get("/{clientID}", h.handleGetClient)
			r.Put("/{clientID}/address", h.handleUpdateClientAddress)
			r.Put("/{clientID}/contact", h.handleUpdateClientContact)
			r.Post("/{clientID}/enable", h.handleEnableClient)
			r.Post("/{clientID}/disable", h.handleDisableClient)
			r.Delete("/{clientID}", h.handleDeleteClient)
			r.Post("/{clientID}/transfer", h.handleTransferOwnership)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.handleListRoles)
			r.Get("/{roleID}", h.handleGetRole)
			r.Post("/", h.handleCreateRole)
			r.Put("/{roleID}/permissions", h.handleUpdateRolePermissions)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/", h.handleListAuditEvents)
			r.Get("/actor/{actorID}", h.handleListAuditEventsByActor)
		})
	})

	return r
}
