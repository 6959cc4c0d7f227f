package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/services"
	"github.com/go-chi/chi/v5"
)

type SquadHandler struct {
	squadService services.SquadService
	publicURL    string
}

func NewSquadHandler(ss services.SquadService, publicURL string) *SquadHandler {
	return &SquadHandler{
		squadService: ss,
		publicURL:    publicURL,
	}
}

func (h *SquadHandler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.SquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) ListSquads(w http.ResponseWriter, r *http.Request) {
	squads, err := h.squadService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squads": squads}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) GetSquadByID(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.GetByID(r.Context(), squadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) GetMySquad(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	squad, err := h.squadService.GetMine(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) RenameSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.SquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.Rename(r.Context(), squadID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) DeleteSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.squadService.Delete(r.Context(), squadID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SquadHandler) LeaveSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.squadService.Leave(r.Context(), squadID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SquadHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.squadService.RemoveMember(r.Context(), squadID, memberID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SquadHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invite, err := h.squadService.CreateInvite(r.Context(), squadID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"invite": map[string]interface{}{
			"id":         invite.ID,
			"squad_id":   invite.SquadID,
			"expires_at": invite.ExpiresAt,
		},
		"invite_token": invite.Token,
		"invite_link":  h.publicURL + "/squads/join/" + invite.Token,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invites, err := h.squadService.ListInvites(r.Context(), squadID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Токены отдаем владельцу отдельным списком, в модели они скрыты.
	items := make([]map[string]interface{}, 0, len(invites))
	for _, invite := range invites {
		items = append(items, map[string]interface{}{
			"id":           invite.ID,
			"squad_id":     invite.SquadID,
			"expires_at":   invite.ExpiresAt,
			"created_at":   invite.CreatedAt,
			"invite_token": invite.Token,
		})
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SquadHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	squadID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.squadService.RevokeInvite(r.Context(), squadID, inviteID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SquadHandler) JoinSquad(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		badRequestResponse(w, r, errors.New("missing invite token in URL path"))
		return
	}

	joiningUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to join a squad")
		return
	}

	squad, err := h.squadService.JoinByToken(r.Context(), token, joiningUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message": "Successfully joined squad",
		"squad":   squad,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
