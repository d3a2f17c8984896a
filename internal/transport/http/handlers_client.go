package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

type createClientRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phones  string `json:"phones"`
	Emails  string `json:"emails"`
}

type updateAddressRequest struct {
	Address string `json:"address"`
}

type updateContactRequest struct {
	Emails *string `json:"emails"`
	Phones *string `json:"phones"`
}

type transferOwnershipRequest struct {
	NewAdminID int `json:"new_admin_id"`
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	created, err := h.clients.CreateClient(r.Context(), requestcontext.AdminID(r.Context()),
		req.Name, req.Address, req.Phones, req.Emails)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(created))
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context(), requestcontext.AdminID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponses(clients))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	client, err := h.clients.GetClient(r.Context(), requestcontext.AdminID(r.Context()), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (h *Handler) handleUpdateClientAddress(w http.ResponseWriter, r *http.Request) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	client, err := h.clients.UpdateClientAddress(r.Context(), requestcontext.AdminID(r.Context()), clientID, req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (h *Handler) handleUpdateClientContact(w http.ResponseWriter, r *http.Request) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	client, err := h.clients.UpdateClientContact(r.Context(), requestcontext.AdminID(r.Context()), clientID, req.Emails, req.Phones)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (h *Handler) handleEnableClient(w http.ResponseWriter, r *http.Request) {
	h.setClientStatus(w, r, true)
}

func (h *Handler) handleDisableClient(w http.ResponseWriter, r *http.Request) {
	h.setClientStatus(w, r, false)
}

func (h *Handler) setClientStatus(w http.ResponseWriter, r *http.Request, enabled bool) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	actorID := requestcontext.AdminID(r.Context())
	if enabled {
		client, opErr := h.clients.EnableClient(r.Context(), actorID, clientID)
		if opErr != nil {
			writeError(w, opErr)
			return
		}
		writeJSON(w, http.StatusOK, toClientResponse(client))
		return
	}
	client, opErr := h.clients.DisableClient(r.Context(), actorID, clientID)
	if opErr != nil {
		writeError(w, opErr)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.clients.DeleteClient(r.Context(), requestcontext.AdminID(r.Context()), clientID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	clientID, err := urlParamInt(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	client, err := h.clients.TransferClientOwnership(r.Context(), requestcontext.AdminID(r.Context()), clientID, req.NewAdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(client))
}
