package httptransport

import (
	"encoding/json"
	"net/http"

	"custodia/internal/rbac"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type updateRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func toPermissions(names []string) []rbac.Permission {
	out := make([]rbac.Permission, 0, len(names))
	for _, name := range names {
		out = append(out, rbac.Permission(name))
	}
	return out
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context(), requestcontext.AdminID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponses(roles))
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := urlParamInt(r, "roleID")
	if err != nil {
		writeError(w, err)
		return
	}
	role, err := h.roles.GetRole(r.Context(), requestcontext.AdminID(r.Context()), roleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	role, err := h.roles.CreateCustomRole(r.Context(), requestcontext.AdminID(r.Context()),
		req.Name, req.Description, toPermissions(req.Permissions))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (h *Handler) handleUpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := urlParamInt(r, "roleID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateRolePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	role, err := h.roles.UpdateRolePermissions(r.Context(), requestcontext.AdminID(r.Context()),
		roleID, toPermissions(req.Permissions))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.auditTrail.ListAuditEvents(r.Context(), requestcontext.AdminID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditEventResponses(events))
}

func (h *Handler) handleListAuditEventsByActor(w http.ResponseWriter, r *http.Request) {
	actorID, err := urlParamInt(r, "actorID")
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := h.auditTrail.ListAuditEventsByActor(r.Context(), requestcontext.AdminID(r.Context()), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditEventResponses(events))
}
