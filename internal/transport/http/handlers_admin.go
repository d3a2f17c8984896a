package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

type createAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleIDs  []int  `json:"role_ids"`
}

type changeEmailRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	created, err := h.admins.CreateAdmin(r.Context(), requestcontext.AdminID(r.Context()),
		req.Name, req.Email, req.Password, req.RoleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdminResponse(created))
}

func (h *Handler) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context(), requestcontext.AdminID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponses(admins))
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	admin, err := h.admins.GetAdmin(r.Context(), requestcontext.AdminID(r.Context()), adminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

func (h *Handler) handleChangeAdminEmail(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req changeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	admin, err := h.admins.ChangeAdminEmail(r.Context(), requestcontext.AdminID(r.Context()), adminID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

func (h *Handler) handleChangeAdminPassword(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if err := h.admins.ChangeAdminPassword(r.Context(), requestcontext.AdminID(r.Context()), adminID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEnableAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdminStatus(w, r, true)
}

func (h *Handler) handleDisableAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdminStatus(w, r, false)
}

func (h *Handler) setAdminStatus(w http.ResponseWriter, r *http.Request, enabled bool) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	actorID := requestcontext.AdminID(r.Context())
	var admin any
	if enabled {
		a, opErr := h.admins.EnableAdmin(r.Context(), actorID, adminID)
		if opErr != nil {
			writeError(w, opErr)
			return
		}
		admin = toAdminResponse(a)
	} else {
		a, opErr := h.admins.DisableAdmin(r.Context(), actorID, adminID)
		if opErr != nil {
			writeError(w, opErr)
			return
		}
		admin = toAdminResponse(a)
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *Handler) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admins.DeleteAdmin(r.Context(), requestcontext.AdminID(r.Context()), adminID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	roleID, err := urlParamInt(r, "roleID")
	if err != nil {
		writeError(w, err)
		return
	}
	admin, err := h.admins.AssignRole(r.Context(), requestcontext.AdminID(r.Context()), adminID, roleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

func (h *Handler) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	roleID, err := urlParamInt(r, "roleID")
	if err != nil {
		writeError(w, err)
		return
	}
	admin, err := h.admins.RemoveRole(r.Context(), requestcontext.AdminID(r.Context()), adminID, roleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

func (h *Handler) handleAdminClients(w http.ResponseWriter, r *http.Request) {
	adminID, err := urlParamInt(r, "adminID")
	if err != nil {
		writeError(w, err)
		return
	}
	clients, err := h.clients.ClientsCreatedBy(r.Context(), requestcontext.AdminID(r.Context()), adminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponses(clients))
}

func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid "+name+" in path")
	}
	return value, nil
}
