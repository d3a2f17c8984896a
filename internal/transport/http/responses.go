package httptransport

import (
	"time"

	"custodia/internal/audit"
	"custodia/internal/identity"
	"custodia/internal/rbac"
	"custodia/internal/subject"
)

type adminResponse struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Enabled        bool      `json:"enabled"`
	RoleIDs        []int     `json:"role_ids"`
	CreatedClients int       `json:"created_clients"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAdminResponse(a *identity.Administrator) adminResponse {
	return adminResponse{
		ID:             a.ID(),
		Name:           a.Name(),
		Email:          a.Email(),
		Enabled:        a.Enabled(),
		RoleIDs:        a.RoleIDs(),
		CreatedClients: a.CreatedClients(),
		CreatedAt:      a.CreatedAt(),
	}
}

func toAdminResponses(admins []*identity.Administrator) []adminResponse {
	out := make([]adminResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, toAdminResponse(a))
	}
	return out
}

type clientResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phones    string    `json:"phones"`
	Emails    string    `json:"emails"`
	AdminID   int       `json:"admin_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

func toClientResponse(c *subject.Client) clientResponse {
	return clientResponse{
		ID:        c.ID(),
		Name:      c.Name(),
		Address:   c.Address(),
		Phones:    c.Phones(),
		Emails:    c.Emails(),
		AdminID:   c.AdminID(),
		Enabled:   c.Enabled(),
		CreatedAt: c.CreatedAt(),
	}
}

func toClientResponses(clients []*subject.Client) []clientResponse {
	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	return out
}

type roleResponse struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	System      bool     `json:"system"`
	Permissions []string `json:"permissions"`
}

func toRoleResponse(r rbac.Role) roleResponse {
	perms := r.Permissions()
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.String())
	}
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		System:      r.System,
		Permissions: names,
	}
}

func toRoleResponses(roles []rbac.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return out
}

type auditEventResponse struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   int       `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func toAuditEventResponses(events []audit.Event) []auditEventResponse {
	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			ID:        e.ID.String(),
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			Subject:   e.Subject,
			Action:    e.Action,
			Reason:    e.Reason,
			RequestID: e.RequestID,
		})
	}
	return out
}
